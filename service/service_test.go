package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/google/go-cmp/cmp"

	"github.com/ppopth/lfsr-analysis/cipher"
	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/host"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/pb"
	"github.com/ppopth/lfsr-analysis/poly"
	"github.com/ppopth/lfsr-analysis/store"
)

func newTestHost(t *testing.T) *host.Host {
	t.Helper()
	h, err := host.New(host.WithAddrPort(netip.MustParseAddrPort("127.0.0.1:0")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// setup starts a server and a client connected to it
func setup(t *testing.T, opts ...Option) (*Server, *Client) {
	t.Helper()
	sh := newTestHost(t)
	s, err := NewServer(sh, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, newTestHost(t), sh.LocalAddr())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	if c.Server() != sh.ID() {
		t.Fatalf("client talks to %s, expected %s", c.Server(), sh.ID())
	}
	return s, c
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestAnalyzeRemote(t *testing.T) {
	_, c := setup(t)
	ctx := testContext(t)

	testCases := []struct {
		in       order.Input
		strategy order.Strategy
	}{
		{order.Input{FieldOrder: 2, Coefficients: []uint64{1, 1, 0, 0, 1}}, order.StrategyAuto},
		{order.Input{FieldOrder: 2, Coefficients: []uint64{1, 0, 1, 0, 1}}, order.StrategyExhaustive},
		{order.Input{FieldOrder: 2, Coefficients: []uint64{0, 0, 0, 1, 1}}, order.StrategyAuto},
		{order.Input{FieldOrder: 3, Coefficients: []uint64{2, 1, 1}, Degree: 2}, order.StrategyDivisor},
	}
	for _, tc := range testCases {
		p, err := tc.in.Polynomial()
		if err != nil {
			t.Fatal(err)
		}
		want, err := order.Analyze(ctx, p, order.WithStrategy(tc.strategy))
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.Analyze(ctx, tc.in, tc.strategy)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if diff := cmp.Diff(toJSON(t, want), toJSON(t, got)); diff != "" {
			t.Errorf("%s: analysis mismatch (-want +got):\n%s", p, diff)
		}
	}
}

func TestOrderRemote(t *testing.T) {
	_, c := setup(t)
	ctx := testContext(t)

	v, err := c.Order(ctx, order.Input{FieldOrder: 2, Coefficients: []uint64{1, 0, 1, 0, 1}}, order.StrategyAuto)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "6" {
		t.Errorf("expected order 6, got %s", v)
	}

	v, err = c.Order(ctx, order.Input{FieldOrder: 2, Coefficients: []uint64{0, 1, 1}}, order.StrategyAuto)
	if err != nil {
		t.Fatal(err)
	}
	if v.IsDefined() {
		t.Errorf("expected an undefined order, got %s", v)
	}
}

func TestKeystreamRemote(t *testing.T) {
	_, c := setup(t)
	ctx := testContext(t)

	key := make([]uint64, 64)
	for i := range key {
		key[i] = uint64(i % 3 % 2)
	}
	iv := make([]uint64, 22)
	iv[0], iv[5] = 1, 1

	f := field.NewGF2()
	for _, v := range [][]uint64{nil, iv} {
		local, _ := cipher.New(cipher.ReferenceConfig())
		var ivElems []field.Element
		if v != nil {
			ivElems = field.FromUint64s(f, v)
		}
		want, err := local.GenerateKeystream(field.FromUint64s(f, key), ivElems, 128)
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.Keystream(ctx, key, v, 128)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want.Uint64s(), got); diff != "" {
			t.Errorf("keystream mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDescribeRemote(t *testing.T) {
	cfg := cipher.Config{
		Field:     field.MustNew(3),
		Registers: []cipher.RegisterSpec{{Size: 3, Taps: []int{0, 2}, ClockIndex: 1}},
		IVLength:  2,
		WarmUp:    4,
		Clock:     cipher.RegularRule{},
	}
	_, c := setup(t, WithCipher(cfg))

	got, err := c.Describe(testContext(t))
	if err != nil {
		t.Fatal(err)
	}
	local, _ := cipher.New(cfg)
	if diff := cmp.Diff(local.Describe(), got); diff != "" {
		t.Errorf("description mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorKinds(t *testing.T) {
	_, c := setup(t, WithMaxKeystream(1000))
	ctx := testContext(t)

	kindOf := func(t *testing.T, err error) pb.Response_ErrorKind {
		t.Helper()
		var re *ResponseError
		if !errors.As(err, &re) {
			t.Fatalf("expected a ResponseError, got %v", err)
		}
		return re.Kind
	}

	gf2 := func(coeffs ...uint64) order.Input {
		return order.Input{FieldOrder: 2, Coefficients: coeffs}
	}
	polyCases := []struct {
		name     string
		in       order.Input
		strategy order.Strategy
		want     pb.Response_ErrorKind
	}{
		{"constant", gf2(1), order.StrategyAuto, pb.Response_ALGEBRA},
		{"zero", gf2(), order.StrategyAuto, pb.Response_ALGEBRA},
		{"not a field", order.Input{FieldOrder: 6, Coefficients: []uint64{1, 1}}, order.StrategyAuto, pb.Response_INVALID},
		{"coefficient outside the field", gf2(1, 2), order.StrategyAuto, pb.Response_INVALID},
		{"degree mismatch", order.Input{FieldOrder: 2, Coefficients: []uint64{1, 1}, Degree: 3}, order.StrategyAuto, pb.Response_INVALID},
		{"divisor on reducible", gf2(1, 0, 1), order.StrategyDivisor, pb.Response_ALGEBRA},
	}
	for _, tc := range polyCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Order(ctx, tc.in, tc.strategy)
			if got := kindOf(t, err); got != tc.want {
				t.Errorf("got %s, expected %s: %v", got, tc.want, err)
			}
		})
	}

	key := make([]uint64, 64)
	if _, err := c.Keystream(ctx, key[:63], nil, 10); kindOf(t, err) != pb.Response_KEY_LENGTH {
		t.Errorf("expected KEY_LENGTH, got %v", err)
	}
	if _, err := c.Keystream(ctx, key, make([]uint64, 21), 10); kindOf(t, err) != pb.Response_IV_LENGTH {
		t.Errorf("expected IV_LENGTH, got %v", err)
	}
	if _, err := c.Keystream(ctx, key, []uint64{}, 10); kindOf(t, err) != pb.Response_IV_LENGTH {
		t.Errorf("expected IV_LENGTH for an empty IV, got %v", err)
	}
	bad := make([]uint64, 64)
	bad[3] = 2
	if _, err := c.Keystream(ctx, bad, nil, 10); kindOf(t, err) != pb.Response_INVALID {
		t.Errorf("expected INVALID for a non-bit key, got %v", err)
	}
	if _, err := c.Keystream(ctx, key, nil, 1001); kindOf(t, err) != pb.Response_INVALID {
		t.Errorf("expected INVALID for a long keystream, got %v", err)
	}
}

func TestServerTimeout(t *testing.T) {
	_, c := setup(t, WithRequestTimeout(50*time.Millisecond))
	ctx := testContext(t)

	// t^31 + t^3 + 1 is primitive, so the exhaustive search runs for 2^31 steps
	in := order.Input{FieldOrder: 2, Coefficients: make([]uint64, 32)}
	in.Coefficients[0], in.Coefficients[3], in.Coefficients[31] = 1, 1, 1

	start := time.Now()
	_, err := c.Order(ctx, in, order.StrategyExhaustive)
	var re *ResponseError
	if !errors.As(err, &re) || !re.Timeout() {
		t.Fatalf("expected a timeout response, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}

	// the divisor search answers quickly under the same bound
	v, err := c.Order(ctx, in, order.StrategyDivisor)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "2147483647" {
		t.Errorf("expected order 2^31-1, got %s", v)
	}
}

func TestServerCache(t *testing.T) {
	st, err := store.New(8)
	if err != nil {
		t.Fatal(err)
	}
	_, c := setup(t, WithCache(st))
	ctx := testContext(t)

	in := order.Input{FieldOrder: 5, Coefficients: []uint64{2, 1, 1}}
	first, err := c.Analyze(ctx, in, order.StrategyAuto)
	if err != nil {
		t.Fatal(err)
	}
	if st.Len() != 1 {
		t.Fatalf("expected one cached result, got %d", st.Len())
	}
	second, err := c.Analyze(ctx, in, order.StrategyAuto)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(toJSON(t, first), toJSON(t, second)); diff != "" {
		t.Errorf("cached analysis differs (-first +second):\n%s", diff)
	}
	if st.Len() != 1 {
		t.Errorf("expected the cache to be reused, got %d results", st.Len())
	}
}

func TestConcurrentCalls(t *testing.T) {
	_, c := setup(t, WithConcurrency(2))
	ctx := testContext(t)

	inputs := []order.Input{
		{FieldOrder: 2, Coefficients: []uint64{1, 1, 0, 0, 1}},
		{FieldOrder: 2, Coefficients: []uint64{1, 0, 1, 0, 1}},
		{FieldOrder: 3, Coefficients: []uint64{2, 1, 1}},
		{FieldOrder: 2, Coefficients: []uint64{1, 0, 0, 0, 1, 1}},
	}
	want := []string{"15", "6", "8", "21"}

	var wg sync.WaitGroup
	errs := make([]error, 4*len(inputs))
	got := make([]string, len(errs))
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Order(ctx, inputs[i%len(inputs)], order.StrategyAuto)
			errs[i] = err
			got[i] = v.String()
		}()
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Errorf("call %d: %v", i, errs[i])
			continue
		}
		if got[i] != want[i%len(want)] {
			t.Errorf("call %d: got order %s, expected %s", i, got[i], want[i%len(want)])
		}
	}
}

// TestDuplicateRequestDropped sends raw requests and checks that a
// repeated id from the same peer is answered once
func TestDuplicateRequestDropped(t *testing.T) {
	sh := newTestHost(t)
	s, err := NewServer(sh)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := testContext(t)
	ch := newTestHost(t)
	sid, err := ch.Connect(ctx, sh.LocalAddr())
	if err != nil {
		t.Fatal(err)
	}
	conn, _ := ch.Conn(sid)

	for _, id := range []uint64{1, 1, 2} {
		data, _ := proto.Marshal(&pb.Request{Id: id, Kind: pb.Request_DESCRIBE})
		if err := conn.Send(data); err != nil {
			t.Fatal(err)
		}
	}

	seen := make(map[uint64]int)
	for i := 0; i < 2; i++ {
		data, err := conn.Receive(ctx)
		if err != nil {
			t.Fatal(err)
		}
		resp := &pb.Response{}
		if err := proto.Unmarshal(data, resp); err != nil {
			t.Fatal(err)
		}
		seen[resp.Id]++
	}
	if seen[1] != 1 || seen[2] != 1 {
		t.Fatalf("unexpected responses %v", seen)
	}

	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if _, err := conn.Receive(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected no third response, got %v", err)
	}
}

func TestServerOptionsReject(t *testing.T) {
	h := newTestHost(t)
	for _, opt := range []Option{
		WithConcurrency(0),
		WithDedupTTL(0),
		WithMaxKeystream(0),
		WithCipher(cipher.Config{}),
	} {
		if _, err := NewServer(h, opt); err == nil {
			t.Error("expected an error")
		}
	}
}

func TestClientClose(t *testing.T) {
	_, c := setup(t)
	c.Close()
	if _, err := c.Describe(testContext(t)); err == nil {
		t.Error("expected an error after Close")
	}
}

func TestResultConversion(t *testing.T) {
	for _, s := range []string{"t^4 + t^3", "t^6 + t^4 + t^2 + 1", "t^5 + t^2 + 1"} {
		p, err := poly.Parse(field.NewGF2(), s)
		if err != nil {
			t.Fatal(err)
		}
		r, err := order.Analyze(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		back, err := resultFromPB(resultToPB(r))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(toJSON(t, r), toJSON(t, back)); diff != "" {
			t.Errorf("%s: conversion mismatch (-want +got):\n%s", s, diff)
		}
	}
}

func TestErrorKindClassification(t *testing.T) {
	testCases := []struct {
		err  error
		want pb.Response_ErrorKind
	}{
		{nil, pb.Response_NONE},
		{context.DeadlineExceeded, pb.Response_TIMEOUT},
		{&cipher.KeyLengthError{Got: 1, Want: 2}, pb.Response_KEY_LENGTH},
		{&cipher.IVLengthError{Got: 1, Want: 2}, pb.Response_IV_LENGTH},
		{&poly.AlgebraError{Op: "order", Err: poly.ErrConstant}, pb.Response_ALGEBRA},
		{order.ErrNotIrreducible, pb.Response_ALGEBRA},
		{&InvalidRequestError{Reason: "x"}, pb.Response_INVALID},
		{errors.New("other"), pb.Response_INVALID},
	}
	for _, tc := range testCases {
		if got := errorKind(tc.err); got != tc.want {
			t.Errorf("errorKind(%v) = %s, expected %s", tc.err, got, tc.want)
		}
	}
}
