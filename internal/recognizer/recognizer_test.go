package recognizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchChangedHonorsResultIndex(t *testing.T) {
	batch := Batch{
		ResultIndex: 1,
		Pieces: []Piece{
			{Text: "already handled", Final: true},
			{Text: "new words", Final: false},
		},
	}
	require.Equal(t, []Piece{{Text: "new words"}}, batch.Changed())
}

func TestBatchChangedClampsCursor(t *testing.T) {
	pieces := []Piece{{Text: "a"}, {Text: "b"}}

	require.Equal(t, pieces, Batch{ResultIndex: -3, Pieces: pieces}.Changed())
	require.Empty(t, Batch{ResultIndex: 2, Pieces: pieces}.Changed())
	require.Empty(t, Batch{}.Changed())
}

func TestUnsupportedProvider(t *testing.T) {
	var p Provider = Unsupported{}
	require.False(t, p.Supported())

	session, err := p.Open(Options{Language: "en-US"}, nil)
	require.ErrorIs(t, err, ErrUnsupported)
	require.Nil(t, session)
}
