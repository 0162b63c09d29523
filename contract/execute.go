package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/bank"
	nativecommon "passage/native/common"
	"passage/native/fees"
	"passage/native/market"
	"passage/native/params"
	"passage/observability"
	"passage/observability/metrics"
)

// Execute runs one message as info.Sender. Attached funds move to the contract
// account first; whatever the handler does not consume is refunded. The whole
// call commits or nothing does.
func (c *Contract) Execute(ctx context.Context, env types.Env, info types.MessageInfo, msg ExecuteMsg) (*Response, error) {
	start := time.Now()
	kind, err := msg.Kind()
	if err != nil {
		observability.Contract().ObserveExecute("unknown", perrors.Kind(err), time.Since(start))
		return nil, err
	}
	requestID := RequestIDFromContext(ctx)
	_, span := c.tracer.Start(ctx, "contract.execute", trace.WithAttributes(
		attribute.String("passage.msg", kind),
		attribute.String("passage.sender", info.Sender.String()),
		attribute.String("passage.request_id", requestID),
	))
	defer span.End()

	c.mu.Lock()
	u := c.begin(env)
	data, runErr := c.run(u, env, info, kind, msg)
	resp, err := u.finish(runErr)
	c.mu.Unlock()

	errKind := perrors.Kind(err)
	observability.Contract().ObserveExecute(kind, errKind, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errKind)
		c.logger.Warn("execute rejected",
			slog.String("kind", kind),
			slog.String("sender", info.Sender.String()),
			slog.String("requestId", requestID),
			slog.String("reason", errKind),
			slog.String("error", err.Error()))
		return nil, err
	}
	resp.RequestID = requestID
	resp.Kind = kind
	resp.Data = data
	recordEvents(resp)
	span.SetAttributes(attribute.Int("passage.events", len(resp.Events)))
	c.logger.Info("execute committed",
		slog.String("kind", kind),
		slog.String("sender", info.Sender.String()),
		slog.String("requestId", requestID),
		slog.Int("events", len(resp.Events)),
		slog.String("changeset", resp.Changeset.Hex()))
	return resp, nil
}

func recordEvents(resp *Response) {
	for _, evt := range resp.Events {
		observability.Events().RecordEvent(evt.Type)
	}
	for _, transfer := range resp.Transfers {
		observability.Events().RecordTransfer(transfer.Coin.Denom)
	}
}

// trackEscrow publishes the escrow balance once the call commits.
func (c *Contract) trackEscrow(u *unit) error {
	p, err := c.market.Params()
	if err != nil {
		return err
	}
	held, err := c.bank.Balance(market.EscrowAccount(), p.Denom)
	if err != nil {
		return err
	}
	u.onCommit(func() { metrics.Market().SetEscrowHeld(p.Denom, held) })
	return nil
}

func (c *Contract) run(u *unit, env types.Env, info types.MessageInfo, kind string, msg ExecuteMsg) (json.RawMessage, error) {
	if _, ok, err := loadInfo(u.mgr); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: contract not instantiated", perrors.ErrInvalidConfig)
	}
	if err := info.Funds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrInvalidConfig, err)
	}
	holder := contractAddress(env)
	if err := c.bank.SendCoins(info.Sender, holder, info.Funds, "attach"); err != nil {
		return nil, err
	}
	payment := bank.NewPayment(info.Sender, holder, info.Funds)
	result, err := c.dispatch(u, info.Sender, payment, msg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if err := payment.Settle(c.bank); err != nil {
		return nil, err
	}
	if err := c.trackEscrow(u); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return json.Marshal(result)
}

func (c *Contract) dispatch(u *unit, sender types.Address, payment *bank.Payment, msg ExecuteMsg) (interface{}, error) {
	switch {
	case msg.Mint != nil:
		token, err := c.minter.Mint(sender, payment, msg.Mint.Proof)
		if err != nil {
			return nil, err
		}
		u.onCommit(func() { metrics.Market().RecordMint(token.ID) })
		return newTokenView(token), nil
	case msg.UpdateMintConfig != nil:
		return nil, c.minter.UpdateConfig(sender, *msg.UpdateMintConfig)
	case msg.List != nil:
		m := msg.List
		return c.market.List(sender, m.TokenID, m.Price, m.ExpiresAt, market.ListOptions{
			FundsRecipient: m.FundsRecipient,
			ReserveFor:     m.ReserveFor,
			AllowList:      m.AllowList,
		})
	case msg.CancelListing != nil:
		return nil, c.market.CancelListing(sender, msg.CancelListing.TokenID)
	case msg.PlaceBid != nil:
		m := msg.PlaceBid
		return c.market.PlaceBid(sender, m.TokenID, m.Price, m.ExpiresAt, payment)
	case msg.CancelBid != nil:
		return nil, c.market.CancelBid(sender, msg.CancelBid.TokenID)
	case msg.Buy != nil:
		s, err := c.market.Buy(sender, msg.Buy.TokenID, payment)
		return u.sale(s, err)
	case msg.AcceptBid != nil:
		s, err := c.market.AcceptBid(sender, msg.AcceptBid.TokenID, msg.AcceptBid.Bidder)
		return u.sale(s, err)
	case msg.UpdateFeeSchedule != nil:
		if err := c.admin.RequireAdmin(sender); err != nil {
			return nil, err
		}
		if err := fees.SaveSchedule(params.NewStore(u.mgr), *msg.UpdateFeeSchedule); err != nil {
			return nil, fmt.Errorf("%w: %v", perrors.ErrInvalidConfig, err)
		}
		return nil, nil
	case msg.Pause != nil:
		return nil, c.admin.Pause(sender)
	case msg.Unpause != nil:
		return nil, c.admin.Unpause(sender)
	case msg.TransferAdmin != nil:
		return nil, c.admin.TransferAdmin(sender, msg.TransferAdmin.Admin)
	case msg.UpdateOperators != nil:
		return nil, c.admin.SetOperators(sender, msg.UpdateOperators.Operators)
	case msg.AddMembers != nil:
		return nil, c.minter.AddMembers(sender, msg.AddMembers.Members)
	case msg.RemoveMembers != nil:
		return nil, c.minter.RemoveMembers(sender, msg.RemoveMembers.Members)
	case msg.UpdateParams != nil:
		return nil, c.market.UpdateParams(sender, *msg.UpdateParams)
	case msg.PlaceCollectionBid != nil:
		m := msg.PlaceCollectionBid
		return c.market.PlaceCollectionBid(sender, m.Units, m.Price, m.ExpiresAt, payment)
	case msg.CancelCollectionBid != nil:
		return nil, c.market.CancelCollectionBid(sender)
	case msg.AcceptCollectionBid != nil:
		s, err := c.market.AcceptCollectionBid(sender, msg.AcceptCollectionBid.TokenID, msg.AcceptCollectionBid.Bidder)
		return u.sale(s, err)
	case msg.TransferNft != nil:
		if err := nativecommon.Guard(c.admin, "nft"); err != nil {
			return nil, err
		}
		return nil, c.nft.Transfer(msg.TransferNft.TokenID, sender, msg.TransferNft.Recipient)
	case msg.SetAttributes != nil:
		if err := nativecommon.Guard(c.admin, "nft"); err != nil {
			return nil, err
		}
		return nil, c.nft.SetAttributes(msg.SetAttributes.TokenID, sender, msg.SetAttributes.Attributes)
	case msg.SweepExpired != nil:
		return c.market.SweepExpired(sender, msg.SweepExpired.TokenID)
	case msg.SetAuction != nil:
		m := msg.SetAuction
		return c.market.PlaceAuction(sender, m.TokenID, m.StartingPrice, m.ExpiresAt, market.AuctionOptions{
			ReservePrice:   m.ReservePrice,
			FundsRecipient: m.FundsRecipient,
		})
	case msg.CloseAuction != nil:
		m := msg.CloseAuction
		s, err := c.market.CloseAuction(sender, m.TokenID, m.AcceptHighestBid)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return AuctionClosedView{TokenID: m.TokenID}, nil
		}
		return u.sale(s, nil)
	}
	return nil, perrors.ErrUnknownMessage
}

func (u *unit) sale(s *market.Settlement, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	u.onCommit(func() { metrics.Market().RecordSale(s.Kind, s.Price.Denom, s.Price.Amount) })
	return newSaleView(s), nil
}
