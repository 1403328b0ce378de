package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/domain"
	"wallet-service/pkg/utils"
	"wallet-service/pkg/xerrors"
)

func newDepositUC(s *fakeStore, depRepo *fakeDepositRepo) *DepositUsecase {
	return NewDepositUsecase(depRepo, &fakeWalletRepo{s}, &fakeLedgerRepo{s},
		nil, nil, testRedis(), utils.NewRefGenerator(), dec("10000"))
}

func TestApprove_CreditsOnceAndRejectsSecondDecision(t *testing.T) {
	s := newFakeStore()
	w := s.addWallet("WLT_1", "0", "0")
	depRepo := newFakeDepositRepo()
	depRepo.deposits["DEP_1"] = &domain.Deposit{
		ID:          "DEP_1",
		WalletID:    w.ID,
		Amount:      dec("5000"),
		Method:      domain.DepositMethodBankTransfer,
		Status:      domain.DepositStatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	uc := newDepositUC(s, depRepo)

	dep, err := uc.Approve(context.Background(), "DEP_1", "ADM_1")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusApproved, dep.Status)

	stored := s.wallets[w.ID]
	assert.True(t, stored.MainBalance.Equal(dec("5000")))
	assert.True(t, stored.TotalDeposited.Equal(dec("5000")))
	assert.Len(t, s.entries, 1)
	assert.Equal(t, domain.EntryKindDepositCredit, s.entries[0].Kind)

	_, err = uc.Approve(context.Background(), "DEP_1", "ADM_2")
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)
	assert.True(t, s.wallets[w.ID].MainBalance.Equal(dec("5000")), "double approval must not credit twice")
	assert.Len(t, s.entries, 1)
}

func TestReject_RequiresReasonAndLeavesBalanceAlone(t *testing.T) {
	s := newFakeStore()
	w := s.addWallet("WLT_1", "0", "0")
	depRepo := newFakeDepositRepo()
	depRepo.deposits["DEP_1"] = &domain.Deposit{
		ID:       "DEP_1",
		WalletID: w.ID,
		Amount:   dec("5000"),
		Status:   domain.DepositStatusPending,
	}
	uc := newDepositUC(s, depRepo)

	_, err := uc.Reject(context.Background(), "DEP_1", "ADM_1", "")
	assert.ErrorIs(t, err, xerrors.ErrRejectReasonNeeded)

	dep, err := uc.Reject(context.Background(), "DEP_1", "ADM_1", "unverifiable transfer")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusRejected, dep.Status)
	assert.True(t, s.wallets[w.ID].MainBalance.IsZero())
	assert.Empty(t, s.entries)
}

func TestListByWallet_CapsLimit(t *testing.T) {
	s := newFakeStore()
	s.addWallet("WLT_1", "0", "0")
	depRepo := newFakeDepositRepo()
	uc := newDepositUC(s, depRepo)

	_, err := uc.ListByWallet(context.Background(), "WLT_1", 1000000000, 0)
	require.NoError(t, err)
	assert.Equal(t, 1000, depRepo.lastLimit)

	_, err = uc.ListByWallet(context.Background(), "WLT_1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, depRepo.lastLimit)
}
