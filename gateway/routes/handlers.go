package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"passage/contract"
	perrors "passage/core/errors"
	"passage/core/types"
	"passage/gateway/middleware"
)

const requestLimit = 1 << 20 // 1 MiB

type handlers struct {
	backend Backend
	env     *EnvSource
	logger  *slog.Logger
}

// executeRequest wraps a message with the funds the sender attaches.
type executeRequest struct {
	Msg   json.RawMessage `json:"msg"`
	Funds types.Coins     `json:"funds,omitempty"`
}

func (h *handlers) execute(w http.ResponseWriter, r *http.Request) {
	sender, _ := middleware.SenderFromContext(r.Context())
	var req executeRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	msg, err := contract.ParseExecuteMsg(req.Msg)
	if err != nil {
		h.writeContractError(w, err)
		return
	}
	resp, err := h.backend.Execute(r.Context(), h.env.Next(), types.MessageInfo{Sender: sender, Funds: req.Funds}, msg)
	if err != nil {
		h.writeContractError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) migrate(w http.ResponseWriter, r *http.Request) {
	sender, _ := middleware.SenderFromContext(r.Context())
	var msg contract.MigrateMsg
	if err := decodeBody(r, &msg); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	resp, err := h.backend.Migrate(r.Context(), h.env.Next(), types.MessageInfo{Sender: sender}, msg)
	if err != nil {
		h.writeContractError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, requestLimit))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	msg, err := contract.ParseQueryMsg(body)
	if err != nil {
		h.writeContractError(w, err)
		return
	}
	h.respondQuery(w, r, msg)
}

func (h *handlers) token(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenParam(w, r)
	if !ok {
		return
	}
	h.respondQuery(w, r, contract.QueryMsg{Token: &contract.TokenMsg{TokenID: id}})
}

func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenParam(w, r)
	if !ok {
		return
	}
	ask, err := h.backend.LiveAsk(r.Context(), h.env.Current(), id)
	if err != nil {
		h.writeContractError(w, err)
		return
	}
	if ask == nil {
		h.writeContractError(w, perrors.ErrNoActiveAsk)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ask)
}

func (h *handlers) bids(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenParam(w, r)
	if !ok {
		return
	}
	msg := &contract.BidsMsg{TokenID: id}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "BadRequest", "invalid limit")
			return
		}
		msg.Limit = uint32(limit)
	}
	if raw := r.URL.Query().Get("start_after"); raw != "" {
		after, err := types.ParseAddress(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "BadRequest", "invalid start_after")
			return
		}
		msg.StartAfter = after
	}
	h.respondQuery(w, r, contract.QueryMsg{Bids: msg})
}

func (h *handlers) mintConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.backend.MintConfig(r.Context(), h.env.Current())
	if err != nil {
		h.writeContractError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, cfg)
}

func (h *handlers) respondQuery(w http.ResponseWriter, r *http.Request, msg contract.QueryMsg) {
	raw, err := h.backend.Query(r.Context(), h.env.Current(), msg)
	if err != nil {
		h.writeContractError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func tokenParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "BadRequest", "invalid token id")
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, out interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, requestLimit))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func (h *handlers) writeContractError(w http.ResponseWriter, err error) {
	kind := perrors.Kind(err)
	message := err.Error()
	if kind == perrors.KindInternal {
		h.logger.Error("gateway internal error", slog.String("error", err.Error()))
		message = http.StatusText(http.StatusInternalServerError)
	}
	middleware.WriteError(w, statusFor(kind), kind, message)
}

func statusFor(kind string) int {
	switch kind {
	case "Unauthorized", "NotOwner", "NotSeller", "NotEligible":
		return http.StatusForbidden
	case "TokenNotFound", "NoActiveAsk", "NoActiveBid", "NoActiveAuction", "MemberNotFound":
		return http.StatusNotFound
	case "AlreadyListed", "DuplicateBid", "DuplicateMember", "ReservePriceMet":
		return http.StatusConflict
	case "UnknownMessage", "InvalidConfig", "ZeroAmount", "InvalidExpiry", "PriceTooLow", "VersionDowngrade":
		return http.StatusBadRequest
	case "ContractPaused":
		return http.StatusServiceUnavailable
	case perrors.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
