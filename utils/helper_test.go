package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-07-01 ")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-07-01", d.Format("2006-01-02"))

	d, err = ParseDate("")
	assert.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("01/07/2024")
	assert.Error(t, err)
}

func TestSmallHelpers(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, UniqueSlice([]int{3, 1, 3, 2, 1}))
	assert.Nil(t, NilIfEmpty("  "))
	assert.Equal(t, "x", *NilIfEmpty("x"))
	assert.Equal(t, 5, DereferencePtr[int](nil, 5))
	assert.Equal(t, "", DereferencePtr[string](nil))
	assert.True(t, *NewTrue())
	assert.False(t, *NewFalse())
	assert.Equal(t, "itemCode", LowercaseFirst("ItemCode"))
	assert.Equal(t, "", LowercaseFirst(""))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("dpo@example.in"))
	assert.False(t, IsValidEmail("dpo@example"))
	assert.False(t, IsValidEmail("not an email"))
}

func TestValidatePhoneNumber(t *testing.T) {
	e164, err := ValidatePhoneNumber("098765 43210", "IN")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", e164)

	_, err = ValidatePhoneNumber("12", "IN")
	assert.Error(t, err)
}

func TestDuplicateError(t *testing.T) {
	err := fmt.Errorf("create user: %w", &DuplicateError{Column: "username"})

	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "username", dup.Column)
	assert.Equal(t, "duplicate username", dup.Error())
}

func TestThumbnailHelpers(t *testing.T) {
	assert.Equal(t, "evidence/12/thumbnails/scan.jpg", ThumbnailObjectKey("evidence/12/scan.jpg"))
	assert.Equal(t, ".pdf", ExtensionFromMimeType("application/pdf"))
	assert.Equal(t, ".xlsx", ExtensionFromMimeType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Equal(t, "", ExtensionFromMimeType("application/octet-stream"))
}
