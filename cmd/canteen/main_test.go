package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/storage"
)

func TestConfirmer(t *testing.T) {
	var out bytes.Buffer
	confirm := confirmer(strings.NewReader("y\nno\nYES\n"), &out, false)

	assert.True(t, confirm("删除这条留言?"))
	assert.False(t, confirm("again?"))
	assert.True(t, confirm("third?"))
	assert.False(t, confirm("eof?"), "no input declines")
	assert.Contains(t, out.String(), "删除这条留言? [y/N] ")

	always := confirmer(strings.NewReader(""), &out, true)
	assert.True(t, always("anything"))
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", got)

	today, err := parseDate("today")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(models.DateLayout), today)

	_, err = parseDate("03/10")
	assert.Error(t, err)
}

func TestSplitListAndStars(t *testing.T) {
	assert.Equal(t, []string{"洗菜", "切菜", "下锅"}, splitList(" 洗菜; 切菜 ;;下锅"))
	assert.Nil(t, splitList(""))
	assert.Equal(t, "★★★☆☆", stars(3))
	assert.Equal(t, "★★★★★", stars(8))
}

func TestLoadDeviceID_Stable(t *testing.T) {
	store, err := storage.OpenLocalStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	first, err := loadDeviceID(ctx, store)
	require.NoError(t, err)
	assert.Len(t, first, 36)

	second, err := loadDeviceID(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
