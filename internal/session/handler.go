package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"memetrader/internal/ledger"

	"go.uber.org/zap"
)

var ErrUnknownOp = errors.New("unknown op")

// MakeMessageHandler returns a function that decodes one JSON request, runs
// it against sess to completion and encodes the reply.
func MakeMessageHandler(logger *zap.Logger, sess *Session) func(ctx context.Context, msg []byte) []byte {
	return func(ctx context.Context, msg []byte) []byte {
		var req Request
		var resp Response
		if err := json.Unmarshal(msg, &req); err != nil {
			logger.Debug("failed to parse request", zap.Error(err))
			resp = withState(failure("", KindBadRequest, "Malformed request."), sess)
		} else {
			resp = Handle(ctx, sess, req)
		}

		out, err := json.Marshal(resp)
		if err != nil {
			logger.Error("failed to encode response", zap.String("op", resp.Op), zap.Error(err))
			out, _ = json.Marshal(failure(resp.Op, KindInternal, "Internal error."))
		}
		return out
	}
}

// Handle runs one request against the session.
func Handle(ctx context.Context, sess *Session, req Request) Response {
	op := strings.ToLower(strings.TrimSpace(req.Op))

	switch op {
	case OpState:
		return success(op, sess, "")

	case OpBuy, OpSell:
		var (
			t   ledger.Trade
			err error
		)
		if op == OpBuy {
			t, err = sess.Buy(ctx, req.Asset, req.Quantity)
		} else {
			t, err = sess.Sell(ctx, req.Asset, req.Quantity)
		}
		if err != nil {
			return withState(tradeFailure(op, err), sess)
		}
		verb := "Bought"
		if op == OpSell {
			verb = "Sold"
		}
		resp := success(op, sess, fmt.Sprintf("%s %d %s!", verb, t.Quantity, t.Asset))
		resp.Trade = &t
		return resp

	case OpNextRound:
		sess.NextRound(ctx)
		return success(op, sess, fmt.Sprintf("Round %d", sess.Round()))

	case OpQuote:
		q, err := sess.Quote(ctx, req.Asset)
		if err != nil {
			if errors.Is(err, ErrUnknownAsset) {
				return failure(op, KindUnknownAsset, fmt.Sprintf("No meme named %q.", req.Asset))
			}
			return failure(op, KindQuoteUnavailable, "Fetching...")
		}
		return Response{Op: op, OK: true, Quote: &q}

	case OpHistory:
		resp := success(op, sess, "")
		resp.Trades = sess.History()
		return resp

	case OpExport:
		var b strings.Builder
		if err := sess.ExportCSV(&b); err != nil {
			return failure(op, KindInternal, "Export failed.")
		}
		return Response{Op: op, OK: true, CSV: b.String()}
	}

	return withState(failure(op, KindUnknownOp, fmt.Sprintf("%v: %q", ErrUnknownOp, req.Op)), sess)
}

func tradeFailure(op string, err error) Response {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return failure(op, KindInsufficientFunds, "Not enough cash!")
	case errors.Is(err, ledger.ErrInsufficientHoldings):
		return failure(op, KindInsufficientHoldings, "Not enough shares!")
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return failure(op, KindInvalidQuantity, "Shares must be at least 1.")
	case errors.Is(err, ErrUnknownAsset):
		return failure(op, KindUnknownAsset, "Unknown meme.")
	}
	return failure(op, KindInternal, "Trade failed.")
}

func success(op string, sess *Session, msg string) Response {
	st := sess.State()
	return Response{Op: op, OK: true, Message: msg, State: &st}
}

func withState(resp Response, sess *Session) Response {
	st := sess.State()
	resp.State = &st
	return resp
}

func failure(op, kind, msg string) Response {
	return Response{Op: op, OK: false, Error: kind, Message: msg}
}
