package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalProfile(t *testing.T) {
	p, err := UnmarshalProfile(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)

	p, err = UnmarshalProfile([]byte(`{"name":"小王","avatar":"🐱","tagline":""}`))
	require.NoError(t, err)
	assert.Equal(t, "小王", p.Name)
	assert.Equal(t, "企鹅食堂", p.Titles.Home)

	p, err = UnmarshalProfile([]byte(`{`))
	assert.Error(t, err)
	assert.Equal(t, DefaultProfile(), p)
}

func TestSetTitle(t *testing.T) {
	p, err := DefaultProfile().SetTitle(TitlePlannerSubtitle, "本周")
	require.NoError(t, err)
	assert.Equal(t, "本周", p.Titles.PlannerSubtitle)

	_, err = p.SetTitle("footer", "x")
	assert.Error(t, err)
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("plan")
	require.NoError(t, err)
	assert.Equal(t, BucketPlan, b)
	assert.True(t, b.IsCollection())
	assert.False(t, BucketProfile.IsCollection())

	_, err = ParseBucket("household")
	assert.Error(t, err)
}
