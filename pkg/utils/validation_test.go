package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHouseholdName(t *testing.T) {
	name, err := ValidateHouseholdName("  我的食堂的家 ")
	require.NoError(t, err)
	assert.Equal(t, "我的食堂的家", name)

	_, err = ValidateHouseholdName("   ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)

	// 40 runes is fine even though it is far more than 40 bytes.
	_, err = ValidateHouseholdName(strings.Repeat("家", 40))
	assert.NoError(t, err)
	_, err = ValidateHouseholdName(strings.Repeat("家", 41))
	assert.Error(t, err)
}

func TestValidateIdea(t *testing.T) {
	idea, err := ValidateIdea(" 鸡蛋和番茄 ")
	require.NoError(t, err)
	assert.Equal(t, "鸡蛋和番茄", idea)

	_, err = ValidateIdea("")
	assert.Error(t, err)
}
