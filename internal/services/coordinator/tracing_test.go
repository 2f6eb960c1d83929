package coordinator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/testutil"
)

// installSpanRecorder routes the global tracer provider through an in-memory
// recorder for the duration of the test.
func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func endedSpans(recorder *tracetest.SpanRecorder) map[string]sdktrace.ReadOnlySpan {
	out := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range recorder.Ended() {
		out[s.Name()] = s
	}
	return out
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDepositFlowEmitsSpans(t *testing.T) {
	recorder := installSpanRecorder(t)

	env := newTestEnv(t)
	env.allow(testutil.BiStr("10000000000000000000"))
	env.reader.UsdValueFn = identityOracle
	env.writer.DepositCollateralFn = func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
		return "0xdeposit", nil
	}

	s, _, _ := openSession(t, env, nil)
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}
	waitForProjection(t, s)
	if err := s.SubmitDeposit(context.Background()); err != nil {
		t.Fatalf("SubmitDeposit: %v", err)
	}

	spans := endedSpans(recorder)
	proj, ok := spans["projection.deposit"]
	if !ok {
		t.Fatalf("no projection span recorded, got %d spans", len(spans))
	}
	if v, ok := spanAttr(proj, "projection.unknown"); !ok || v.AsBool() {
		t.Errorf("projection span unknown attribute = %v, want false", v)
	}

	sub, ok := spans["submission.deposit"]
	if !ok {
		t.Fatalf("no submission span recorded, got %d spans", len(spans))
	}
	if v, ok := spanAttr(sub, "tx.hash"); !ok || v.AsString() != "0xdeposit" {
		t.Errorf("submission span tx.hash = %v, want 0xdeposit", v)
	}
	if sub.Status().Code == codes.Error {
		t.Errorf("submission span marked as error for a confirmed deposit")
	}
}

func TestRejectedSubmissionMarksSpanError(t *testing.T) {
	recorder := installSpanRecorder(t)

	env := newTestEnv(t)
	env.allow(testutil.BiStr("10000000000000000000"))
	env.writer.DepositCollateralFn = func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
		return "", errors.New("nonce too low")
	}

	s, _, _ := openSession(t, env, nil)
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}
	if err := s.SubmitDeposit(context.Background()); err == nil {
		t.Fatal("SubmitDeposit succeeded despite a rejected transaction")
	}

	sub, ok := endedSpans(recorder)["submission.deposit"]
	if !ok {
		t.Fatal("no submission span recorded")
	}
	if sub.Status().Code != codes.Error {
		t.Errorf("submission span status = %v, want error", sub.Status().Code)
	}
}
