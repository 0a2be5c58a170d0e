package bookkeeping

import (
	"context"
	"testing"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFactory_Build(t *testing.T) {
	ctx := context.Background()
	f := facts(EventPaymentReceived)
	f.AmountCents = 900
	f.PaymentMethod = "card"
	factory := NewEntryFactory(NewMappingChart(testMappings(f.Source.StoreID)), "")

	entry, err := factory.Build(ctx, f, time.Now())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, IdempotencyKey(EventPaymentReceived, f.Source.SourceID, "v1"), entry.IdempotencyKey)
	assert.Equal(t, "1020", entry.Lines[0].AccountCode)
	assert.Equal(t, RoleMerchant, entry.Lines[0].AccountRole)
	assert.Equal(t, "1100", entry.Lines[1].AccountCode)
	assert.NoError(t, entry.Validate())
}

func TestEntryFactory_BuildEmpty(t *testing.T) {
	f := facts(EventOrderOpened)
	factory := NewEntryFactory(NewMappingChart(nil), "v3")

	entry, err := factory.Build(context.Background(), f, time.Now())
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, "v3", factory.VersionTag())
}

func TestEntryFactory_MissingMappingIsConfigurationError(t *testing.T) {
	f := facts(EventOrderOpened)
	f.TotalCents = 100
	factory := NewEntryFactory(NewMappingChart([]AccountMapping{
		{StoreID: f.Source.StoreID, Role: RoleAccountsReceivable, AccountCode: "1100"},
	}), "")

	_, err := factory.Build(context.Background(), f, time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsConfiguration(err))
}

func TestEntryFactory_StoreScoped(t *testing.T) {
	f := facts(EventOrderOpened)
	f.TotalCents = 100
	factory := NewEntryFactory(NewMappingChart(testMappings(uuid.New())), "")

	_, err := factory.Build(context.Background(), f, time.Now())
	assert.True(t, shared.IsConfiguration(err))
}
