package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/finjaanapp/finjaan/internal/auth"
	"github.com/finjaanapp/finjaan/internal/cardtoken"
	"github.com/finjaanapp/finjaan/internal/loyalty"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/store"
)

type LoyaltyHandler struct {
	ledger   *loyalty.Ledger
	accounts *store.LoyaltyAccountStore
	codes    *store.RedemptionCodeStore
	minter   *cardtoken.Minter
	logger   *slog.Logger
}

func NewLoyaltyHandler(
	ledger *loyalty.Ledger,
	accounts *store.LoyaltyAccountStore,
	codes *store.RedemptionCodeStore,
	minter *cardtoken.Minter,
	logger *slog.Logger,
) *LoyaltyHandler {
	return &LoyaltyHandler{
		ledger:   ledger,
		accounts: accounts,
		codes:    codes,
		minter:   minter,
		logger:   logger,
	}
}

// mapLoyaltyError translates ledger sentinels to status codes; anything
// unrecognized is a 500.
func (h *LoyaltyHandler) mapLoyaltyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, loyalty.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, loyalty.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "this code is not valid")
	case errors.Is(err, loyalty.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, loyalty.ErrAlreadyUsed):
		writeError(w, http.StatusConflict, "this code has already been used")
	case errors.Is(err, loyalty.ErrNoFreeCups):
		writeError(w, http.StatusConflict, "no free cups available")
	default:
		h.logger.Error("loyalty operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type registerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Register finds or creates the account for a phone number. Existing
// accounts come back unchanged, so the endpoint is safe to repeat.
func (h *LoyaltyHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	acct, err := h.ledger.FindOrCreate(req.Name, req.Phone)
	if err != nil {
		h.mapLoyaltyError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (h *LoyaltyHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []model.LoyaltyAccount{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *LoyaltyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	acct, err := h.accounts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if acct == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type scanRequest struct {
	Token string `json:"token"`
}

type scanResponse struct {
	Account     *model.LoyaltyAccount `json:"account"`
	Eligibility loyalty.Eligibility   `json:"eligibility"`
}

// Scan resolves a scanned card QR token. The signature check rejects
// tampered tokens before the database is consulted.
func (h *LoyaltyHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if _, err := h.minter.Verify(req.Token); err != nil {
		writeError(w, http.StatusNotFound, "card not recognized")
		return
	}

	acct, err := h.ledger.LookupByToken(req.Token)
	if err != nil {
		h.mapLoyaltyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{
		Account:     acct,
		Eligibility: loyalty.ComputeEligibility(acct),
	})
}

func (h *LoyaltyHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	acct, err := h.accounts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if acct == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, loyalty.ComputeEligibility(acct))
}

type redeemCodeRequest struct {
	Code string `json:"code"`
}

// RedeemCode credits one stamp for a single-use code.
func (h *LoyaltyHandler) RedeemCode(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req redeemCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	acct, err := h.ledger.RedeemCode(id, req.Code)
	if err != nil {
		h.mapLoyaltyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type tierRequest struct {
	Tier string `json:"tier"`
}

// SetTier is admin-only; promotion policy lives outside the service.
func (h *LoyaltyHandler) SetTier(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req tierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	acct, err := h.ledger.SetTier(id, req.Tier)
	if err != nil {
		h.mapLoyaltyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type mintCodesRequest struct {
	Count int `json:"count"`
}

// MintCodes is admin-only: generates a batch of single-use codes for
// printing on receipts.
func (h *LoyaltyHandler) MintCodes(w http.ResponseWriter, r *http.Request) {
	var req mintCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var mintedBy *int64
	if ac, ok := auth.FromContext(r.Context()); ok {
		mintedBy = &ac.EmployeeID
	}

	codes, err := h.ledger.MintCodes(req.Count, mintedBy)
	if err != nil {
		h.mapLoyaltyError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"codes": codes})
}

// unusedCodesLimit caps the admin listing; codes are printed in batches,
// not browsed exhaustively.
const unusedCodesLimit = 100

func (h *LoyaltyHandler) ListUnusedCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.ListUnused(unusedCodesLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list codes")
		return
	}
	if codes == nil {
		codes = []model.RedemptionCode{}
	}
	writeJSON(w, http.StatusOK, codes)
}
