package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/enrich/mocks"
	"github.com/sells-group/dataforge/internal/model"
)

func TestResetFlags(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		{ID: "r1", ListID: "l", Data: map[string]string{"Email": "a@b.io", "Name": ""}, Flags: map[string]model.Flag{
			"Email": model.FlagValid, "Name": model.FlagMissing, "Title": model.FlagEnriched,
		}},
		{ID: "r2", ListID: "l", Data: map[string]string{"Phone": "1"}, Flags: map[string]model.Flag{"Phone": model.FlagFormatted}},
	}
	st := newMemStore(rows...)

	out, n, err := ResetFlags(context.Background(), st, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, model.FlagNeedsEnrichment, out[0].Flags["Email"])
	assert.Equal(t, model.FlagNeedsEnrichment, out[0].Flags["Title"])
	assert.Equal(t, model.FlagMissing, out[0].Flags["Name"])
	assert.Equal(t, model.FlagFormatted, out[1].Flags["Phone"])
	assert.Equal(t, model.FlagValid, rows[0].Flags["Email"], "input untouched")

	stored := st.row("r1")
	assert.Equal(t, model.FlagNeedsEnrichment, stored.Flags["Email"])
	assert.Equal(t, 1, st.updates)

	plans := Analyze(out, columns.Resolve([]string{"Email"}))
	assert.Equal(t, model.NeedVerifyOnly, plans[0].Need)
}

func TestResetFlags_StoreError(t *testing.T) {
	t.Parallel()

	st := mocks.NewMockRowStore(t)
	st.On("UpdateRow", mock.Anything, "r1", model.RowUpdate{Flags: map[string]model.Flag{"Email": model.FlagNeedsEnrichment}}).
		Return(errors.New("db down"))

	rows := []model.Row{{ID: "r1", Flags: map[string]model.Flag{"Email": model.FlagInvalid}}}
	_, n, err := ResetFlags(context.Background(), st, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, 0, n)
}
