package checkout

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type stubPoster struct {
	path string
	body any
	out  Confirmation
	err  error
}

func (s *stubPoster) PostJSON(_ context.Context, path string, body, dest any) error {
	s.path = path
	s.body = body
	if s.err != nil {
		return s.err
	}
	*dest.(*Confirmation) = s.out
	return nil
}

func TestPurchaseSendsUniqueIDs(t *testing.T) {
	poster := &stubPoster{out: Confirmation{Success: true, OrderID: "o1", Message: "Purchase successful"}}
	svc, err := NewService(poster)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	conf, err := svc.Purchase(context.Background(), "g1", " g2 ", "g1", "")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if poster.path != "/payments/checkout" {
		t.Fatalf("unexpected path %q", poster.path)
	}
	body := poster.body.(request)
	if len(body.GameIDs) != 2 || body.GameIDs[0] != "g1" || body.GameIDs[1] != "g2" {
		t.Fatalf("unexpected ids %v", body.GameIDs)
	}
	if conf.OrderID != "o1" {
		t.Fatalf("expected order id o1, got %q", conf.OrderID)
	}
}

func TestPurchaseRequiresIDs(t *testing.T) {
	poster := &stubPoster{}
	svc, _ := NewService(poster)

	_, err := svc.Purchase(context.Background(), " ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if poster.path != "" {
		t.Fatalf("expected no request")
	}
}

func TestPurchaseUnsuccessfulIsStateConflict(t *testing.T) {
	svc, _ := NewService(&stubPoster{out: Confirmation{Success: false, Message: "Game already owned"}})

	_, err := svc.Purchase(context.Background(), "g1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if typed.Message() != "Game already owned" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestPurchasePropagatesTransportErrors(t *testing.T) {
	boom := pkgerrors.New(pkgerrors.CodeTransport, "POST /payments/checkout")
	svc, _ := NewService(&stubPoster{err: boom})

	_, err := svc.Purchase(context.Background(), "g1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewServiceRequiresAPI(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatalf("expected error")
	}
}
