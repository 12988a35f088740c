// Package testutils provides helper functions for testing
package testutils

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

// FlagCase describes an expected cobra command flag.
type FlagCase struct {
	Name       string
	Short      string
	Persistent bool
	// Extensions lists the completion file extensions of a filename flag. Nil means not a filename flag.
	Extensions []string
}

// FlagTestHelper checks that cmd declares the flag described by want.
func FlagTestHelper(t *testing.T, cmd *cobra.Command, want FlagCase) {
	t.Helper()

	var flag *pflag.Flag
	if want.Persistent {
		flag = cmd.PersistentFlags().Lookup(want.Name)
	} else {
		flag = cmd.Flags().Lookup(want.Name)
	}
	if !assert.NotNil(t, flag, "flag %s should exist", want.Name) {
		return
	}
	assert.Equal(t, want.Short, flag.Shorthand, "flag %s shorthand", want.Name)

	if want.Extensions != nil {
		assert.Equal(t, want.Extensions, flag.Annotations[cobra.BashCompFilenameExt], "flag %s filename extensions", want.Name)
	} else {
		assert.Nil(t, flag.Annotations[cobra.BashCompFilenameExt], "flag %s should not be a filename flag", want.Name)
	}
}
