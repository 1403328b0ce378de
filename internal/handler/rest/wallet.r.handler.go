package hrest

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"wallet-service/internal/domain"
	"wallet-service/internal/usecase"
	"wallet-service/pkg/xerrors"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type WalletRestHandler struct {
	walletUC     *usecase.WalletUsecase
	depositUC    *usecase.DepositUsecase
	allocationUC *usecase.AllocationUsecase
	reversalUC   *usecase.ReversalUsecase
}

func NewWalletRestHandler(
	walletUC *usecase.WalletUsecase,
	depositUC *usecase.DepositUsecase,
	allocationUC *usecase.AllocationUsecase,
	reversalUC *usecase.ReversalUsecase,
) *WalletRestHandler {
	return &WalletRestHandler{
		walletUC:     walletUC,
		depositUC:    depositUC,
		allocationUC: allocationUC,
		reversalUC:   reversalUC,
	}
}

func (h *WalletRestHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/wallets", h.CreateWallet)
		r.Route("/wallets/{walletID}", func(r chi.Router) {
			r.Get("/balance", h.GetBalance)
			r.Get("/transactions", h.GetTransactions)
			r.Get("/reconciliation", h.GetReconciliation)
			r.Get("/deposits", h.ListWalletDeposits)
			r.Post("/deposits", h.SubmitDeposit)
			r.Post("/allocations", h.Allocate)
			r.Post("/freeze", h.setStatus(domain.WalletStatusFrozen))
			r.Post("/unfreeze", h.setStatus(domain.WalletStatusActive))
			r.Post("/close", h.setStatus(domain.WalletStatusClosed))
		})
		r.Get("/deposits/pending", h.ListPendingDeposits)
		r.Route("/deposits/{depositID}", func(r chi.Router) {
			r.Post("/approve", h.ApproveDeposit)
			r.Post("/reject", h.RejectDeposit)
			r.Post("/reverse", h.ReverseDeposit)
		})
	})
}

// ===============================
// WALLETS
// ===============================

type createWalletJSON struct {
	OwnerID string `json:"owner_id"`
}

func (h *WalletRestHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := h.walletUC.Create(r.Context(), req.OwnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (h *WalletRestHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")

	wallet, err := h.walletUC.GetBalance(r.Context(), walletID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *WalletRestHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	limit, offset := pagination(r)

	entries, err := h.walletUC.History(r.Context(), walletID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *WalletRestHandler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")

	report, err := h.walletUC.Reconcile(r.Context(), walletID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !report.InSync {
		log.Printf("[RECONCILE] ⚠️ wallet %s drifted: cached(%s/%s) replayed(%s/%s)",
			walletID, report.CachedMain, report.CachedBonus, report.ReplayedMain, report.ReplayedBonus)
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *WalletRestHandler) setStatus(status domain.WalletStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		walletID := chi.URLParam(r, "walletID")

		wallet, err := h.walletUC.SetStatus(r.Context(), walletID, status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wallet)
	}
}

// ===============================
// DEPOSITS
// ===============================

type submitDepositJSON struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
}

func (h *WalletRestHandler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")

	var req submitDepositJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, xerrors.ErrInvalidAmount)
		return
	}

	deposit, err := h.depositUC.Submit(r.Context(), walletID, amount, domain.DepositMethod(req.Method))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}

type decideDepositJSON struct {
	AdminID string `json:"admin_id"`
	Reason  string `json:"reason,omitempty"`
}

func (h *WalletRestHandler) ApproveDeposit(w http.ResponseWriter, r *http.Request) {
	depositID := chi.URLParam(r, "depositID")

	var req decideDepositJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deposit, err := h.depositUC.Approve(r.Context(), depositID, req.AdminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (h *WalletRestHandler) RejectDeposit(w http.ResponseWriter, r *http.Request) {
	depositID := chi.URLParam(r, "depositID")

	var req decideDepositJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deposit, err := h.depositUC.Reject(r.Context(), depositID, req.AdminID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (h *WalletRestHandler) ReverseDeposit(w http.ResponseWriter, r *http.Request) {
	depositID := chi.URLParam(r, "depositID")

	deposit, err := h.reversalUC.ReverseDeposit(r.Context(), depositID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (h *WalletRestHandler) ListPendingDeposits(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	deposits, total, err := h.depositUC.ListPending(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deposits": deposits,
		"total":    total,
	})
}

func (h *WalletRestHandler) ListWalletDeposits(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	limit, offset := pagination(r)

	deposits, err := h.depositUC.ListByWallet(r.Context(), walletID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

// ===============================
// ALLOCATIONS
// ===============================

type allocateJSON struct {
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

func (h *WalletRestHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")

	var req allocateJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, xerrors.ErrInvalidAmount)
		return
	}

	alloc, err := h.allocationUC.Allocate(r.Context(), walletID, amount, req.Reference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alloc)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 100
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 1000 {
		limit = 1000
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
