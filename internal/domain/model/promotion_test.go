package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromotion_BeforeSaveNormalizesCode(t *testing.T) {
	cases := map[string]string{
		"save15":     "SAVE15",
		" Save15 ":   "SAVE15",
		"SAVE15":     "SAVE15",
		"\tlimit3\n": "LIMIT3",
	}
	for in, want := range cases {
		p := &Promotion{Code: in}
		require.NoError(t, p.BeforeSave(nil))
		assert.Equal(t, want, p.Code, in)
	}
}
