package payment

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

type MidtransGateway struct {
	snap snap.Client
	core coreapi.Client
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &MidtransGateway{}
	g.snap.New(serverKey, env)
	g.core.New(serverKey, env)
	return g
}

func (g *MidtransGateway) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  truncate(it.Name, 50),
			Price: it.Price,
			Qty:   it.Quantity,
		})
	}

	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &items,
	}
	if req.ExpiryHours > 0 {
		sr.Expiry = &snap.ExpiryDetails{Unit: "hour", Duration: req.ExpiryHours}
	}

	res, merr := g.snap.CreateTransaction(sr)
	if merr != nil {
		return nil, errors.Wrapf(merr, "snap create transaction %s", req.OrderID)
	}
	if res == nil || res.Token == "" {
		return nil, errors.Newf("snap create transaction %s: empty token", req.OrderID)
	}
	return &Transaction{Token: res.Token, RedirectURL: res.RedirectURL}, nil
}

func (g *MidtransGateway) TransactionStatus(ctx context.Context, orderID string) (*Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, merr := g.core.CheckTransaction(orderID)
	if merr != nil {
		return nil, errors.Wrapf(merr, "check transaction %s", orderID)
	}
	return &Notification{
		OrderID:           res.OrderID,
		StatusCode:        res.StatusCode,
		GrossAmount:       res.GrossAmount,
		SignatureKey:      res.SignatureKey,
		TransactionStatus: res.TransactionStatus,
		FraudStatus:       res.FraudStatus,
		PaymentType:       res.PaymentType,
		TransactionID:     res.TransactionID,
		TransactionTime:   res.TransactionTime,
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
