package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"orai-chat/errors"
)

func Test_Apply_Masks_Forbidden_Words(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"idiot", "moron"}, '*')
	req.NoError(err)

	req.Equal("you ***** and you *****", censor.Apply("you idiot and you moron"))
	req.Equal("nothing to mask", censor.Apply("nothing to mask"))
}

func Test_Apply_Is_Case_Insensitive_But_Preserves_The_Rest(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"idiot"}, '*')
	req.NoError(err)

	req.Equal("You *****, Sir!", censor.Apply("You IDIOT, Sir!"))
}

func Test_Apply_Handles_NonASCII_Text(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"idiot"}, '*')
	req.NoError(err)

	// Multibyte runes before the match must not shift the masked span.
	req.Equal("héllo *****", censor.Apply("héllo idiot"))
}

func Test_NewCensor_Rejects_An_Empty_Word_List(t *testing.T) {
	req := require.New(t)

	_, err := NewCensor(nil, '*')
	req.ErrorIs(err, errors.ErrEmptyWords)

	_, err = NewCensor([]string{"  ", ""}, '*')
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func Test_Default_Word_List_Is_Usable(t *testing.T) {
	req := require.New(t)
	censor, err := NewDefaultCensor('*')
	req.NoError(err)
	req.Equal("what a ******", censor.Apply("what a stupid"))
}
