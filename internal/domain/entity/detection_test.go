package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectionRequestValidate(t *testing.T) {
	valid := DetectionRequest{Image: "photo.jpg", Cascade: "haar_default", Scale: 1.1}
	require.NoError(t, valid.Validate())

	cases := map[string]DetectionRequest{
		"negative scale": {Image: "photo.jpg", Cascade: "haar_default", Scale: -1.1},
		"zero scale":     {Image: "photo.jpg", Cascade: "haar_default", Scale: 0},
		"nan scale":      {Image: "photo.jpg", Cascade: "haar_default", Scale: math.NaN()},
		"inf scale":      {Image: "photo.jpg", Cascade: "haar_default", Scale: math.Inf(1)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, req.Validate(), ErrInvalidArgument)
		})
	}
}

func TestDetectionRequestEmptyPathsAreNotProtocolErrors(t *testing.T) {
	noImage := DetectionRequest{Cascade: "haar_default", Scale: 1.1}
	require.NoError(t, noImage.Validate())
	require.False(t, noImage.HasPaths())

	noCascade := DetectionRequest{Image: "photo.jpg", Scale: 1.1}
	require.NoError(t, noCascade.Validate())
	require.False(t, noCascade.HasPaths())

	require.True(t, DetectionRequest{Image: "photo.jpg", Cascade: "haar_default", Scale: 1.1}.HasPaths())
}
