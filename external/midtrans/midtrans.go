package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sony/gobreaker/v2"
)

// Client wraps the snap API behind a circuit breaker so a wedged gateway
// fails fast instead of tying up checkout requests for the full HTTP
// timeout.
type Client struct {
	snap    *snap.Client
	breaker *gobreaker.CircuitBreaker[*snap.Response]
}

func NewClient(serverKey string, production bool) *Client {
	var sc snap.Client

	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	sc.New(serverKey, env)

	cb := gobreaker.NewCircuitBreaker[*snap.Response](gobreaker.Settings{
		Name:    "midtrans-snap",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{snap: &sc, breaker: cb}
}

// CreateTransaction opens a hosted snap session and returns its redirect URL
// and token. The snap SDK has no context support; ctx is accepted for
// interface symmetry with the rest of the service layer.
func (c *Client) CreateTransaction(ctx context.Context, orderRef string, amountCents int64, customerEmail string) (string, string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID: orderRef,
			// GrossAmt is an integer field; amounts cross the gateway in
			// cents and notifications echo the same number in gross_amount
			GrossAmt: amountCents,
		},
	}
	if customerEmail != "" {
		req.CustomerDetail = &midtrans.CustomerDetails{Email: customerEmail}
	}

	resp, err := c.breaker.Execute(func() (*snap.Response, error) {
		r, snapErr := c.snap.CreateTransaction(req)
		if snapErr != nil {
			return nil, snapErr
		}
		return r, nil
	})
	if err != nil {
		return "", "", err
	}
	return resp.RedirectURL, resp.Token, nil
}

// VerifySignature checks the sha512 signature midtrans attaches to every
// status notification.
func VerifySignature(
	orderID string,
	statusCode string,
	grossAmount string,
	signature string,
	serverKey string,
) bool {

	raw := orderID + statusCode + grossAmount + serverKey
	hash := sha512.Sum512([]byte(raw))
	expected := hex.EncodeToString(hash[:])

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
