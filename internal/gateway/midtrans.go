package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// GatewayName identifies the midtrans gateway in transaction records.
const GatewayName = "midtrans"

// ChargeResult captures the gateway-side outcome of a charge or refund.
type ChargeResult struct {
	OrderID       string // Our order reference sent to the gateway.
	TransactionID string // Gateway-side transaction id.
	Status        string // Gateway transaction status.
	RawResponse   []byte // Raw response JSON for auditing.
}

// Client wraps the midtrans core API for online payments.
type Client struct {
	core coreapi.Client
}

// New builds a gateway client, or nil when no server key is configured.
// A nil client disables online payment capture; transactions then stay
// pending until an admin settles them.
func New(serverKey string, production bool) *Client {
	if serverKey == "" {
		return nil
	}
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var core coreapi.Client
	core.New(serverKey, env)
	return &Client{core: core}
}

// Charge submits a bank-transfer charge for the given transaction reference.
func (c *Client) Charge(transactionID string, amount float64) (*ChargeResult, error) {
	orderID := transactionID + "-" + uuid.NewString()[:8]
	req := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeBankTransfer,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: int64(amount),
		},
		BankTransfer: &coreapi.BankTransferDetails{Bank: midtrans.BankBca},
	}
	resp, errCharge := c.core.ChargeTransaction(req)
	if errCharge != nil {
		return nil, fmt.Errorf("gateway: charge: %w", errCharge)
	}
	raw, _ := json.Marshal(resp)
	return &ChargeResult{
		OrderID:       orderID,
		TransactionID: resp.TransactionID,
		Status:        resp.TransactionStatus,
		RawResponse:   raw,
	}, nil
}

// Refund asks the gateway to return funds for a previously settled charge.
func (c *Client) Refund(gatewayTransactionID, refundKey string, amount float64, reason string) (*ChargeResult, error) {
	req := &coreapi.RefundReq{
		RefundKey: refundKey,
		Amount:    int64(amount),
		Reason:    reason,
	}
	resp, errRefund := c.core.RefundTransaction(gatewayTransactionID, req)
	if errRefund != nil {
		return nil, fmt.Errorf("gateway: refund: %w", errRefund)
	}
	raw, _ := json.Marshal(resp)
	return &ChargeResult{
		TransactionID: resp.TransactionID,
		Status:        resp.TransactionStatus,
		RawResponse:   raw,
	}, nil
}
