package flagx

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Type      string        `flag:"type,t" usage:"token type" default:"access"`
	Subject   string        `flag:"subject" usage:"sub claim" required:"true"`
	Lifetime  int64         `flag:"lifetime" default:"900"`
	Retries   int           `flag:"retries"`
	Pair      bool          `flag:"pair"`
	Audience  []string      `flag:"aud"`
	Interval  time.Duration `flag:"interval" default:"1m"`
	untagged  string
	Untouched string
}

func TestBindAndParse(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var req testRequest
	require.NoError(t, BindFlags(cmd, &req))

	require.NoError(t, cmd.ParseFlags([]string{
		"-t", "refresh", "--subject", "u1", "--retries", "3", "--pair",
		"--aud", "a,b", "--interval", "30s",
	}))
	require.NoError(t, ParseFlags(cmd, &req))

	assert.Equal(t, "refresh", req.Type)
	assert.Equal(t, "u1", req.Subject)
	assert.Equal(t, int64(900), req.Lifetime)
	assert.Equal(t, 3, req.Retries)
	assert.True(t, req.Pair)
	assert.Equal(t, []string{"a", "b"}, req.Audience)
	assert.Equal(t, 30*time.Second, req.Interval)
	assert.Empty(t, req.untagged)
}

func TestBindFlags_Defaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var req testRequest
	require.NoError(t, BindFlags(cmd, &req))
	require.NoError(t, cmd.ParseFlags(nil))
	require.NoError(t, ParseFlags(cmd, &req))

	assert.Equal(t, "access", req.Type)
	assert.Equal(t, time.Minute, req.Interval)
	assert.Nil(t, cmd.Flags().Lookup("untouched"))

	required := cmd.Flags().Lookup("subject").Annotations[cobra.BashCompOneRequiredFlag]
	assert.Equal(t, []string{"true"}, required)
}

func TestBindFlags_BadDefault(t *testing.T) {
	type bad struct {
		N int `flag:"n" default:"many"`
	}
	err := BindFlags(&cobra.Command{}, &bad{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind field N")
}

func TestBindFlags_UnsupportedType(t *testing.T) {
	type bad struct {
		F float64 `flag:"f"`
	}
	assert.Error(t, BindFlags(&cobra.Command{}, &bad{}))
}

func TestParseFlags_NotAStructPointer(t *testing.T) {
	cmd := &cobra.Command{}
	var req testRequest
	assert.ErrorContains(t, ParseFlags(cmd, req), "pointer to struct")

	var s string
	assert.ErrorContains(t, ParseFlags(cmd, &s), "pointer to struct")
	assert.ErrorContains(t, BindFlags(cmd, &s), "pointer to struct")
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	type req struct {
		Name string `flag:"name"`
	}
	err := ParseFlags(&cobra.Command{}, &req{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse field Name")
}
