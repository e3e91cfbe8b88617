package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("unix:path=/run/user/1000/shotwell%20faces,guid=abc;tcp:host=localhost")
	require.NoError(t, err)
	require.Equal(t, "unix", addr.Transport)
	require.Equal(t, "/run/user/1000/shotwell faces", addr.Params["path"])
	require.Equal(t, "abc", addr.Params["guid"])

	path, ok := addr.UnixSocket()
	require.True(t, ok)
	require.Equal(t, "/run/user/1000/shotwell faces", path)
}

func TestParseAddressAbstract(t *testing.T) {
	addr, err := ParseAddress("unix:abstract=/tmp/dbus-XYZ")
	require.NoError(t, err)

	path, ok := addr.UnixSocket()
	require.True(t, ok)
	require.Equal(t, "@/tmp/dbus-XYZ", path)
}

func TestParseAddressNonUnix(t *testing.T) {
	addr, err := ParseAddress("tcp:host=127.0.0.1,port=4000")
	require.NoError(t, err)

	_, ok := addr.UnixSocket()
	require.False(t, ok)
}

func TestParseAddressMalformed(t *testing.T) {
	for _, raw := range []string{"", "path=/tmp/x", ":path=/tmp/x", "unix:path", "unix:path=%zz"} {
		_, err := ParseAddress(raw)
		require.Error(t, err, raw)
	}
}
