package midtrans

import "testing"

const testServerKey = "SB-Mid-server-test"

func TestSignatureKnownVector(t *testing.T) {
	got := Signature("ORDER-U1-1700000000", "200", "50000.00", testServerKey)
	want := "0d76f8ea3152dcf36e0db63dc0eb69f7629ddfe29a2618ade8ff22aeb5c078979c34a077e81eefdd3ec3964669cb65a8111d78ae7218e13f2bb65db575d81c4e"
	if got != want {
		t.Fatalf("Signature = %s\nwant        %s", got, want)
	}
}

func TestVerifyRejectsSingleCharMutation(t *testing.T) {
	base := Notification{
		OrderID:           "ORDER-42-1700000000",
		StatusCode:        "200",
		GrossAmount:       "50000",
		TransactionStatus: TransactionSettlement,
	}
	base.Sign(testServerKey)
	if !base.Verify(testServerKey) {
		t.Fatal("signed notification must verify")
	}

	mutate := func(s string) string {
		b := []byte(s)
		if b[len(b)-1] == 'x' {
			b[len(b)-1] = 'y'
		} else {
			b[len(b)-1] = 'x'
		}
		return string(b)
	}

	cases := map[string]func(n *Notification){
		"order_id":      func(n *Notification) { n.OrderID = mutate(n.OrderID) },
		"status_code":   func(n *Notification) { n.StatusCode = mutate(n.StatusCode) },
		"gross_amount":  func(n *Notification) { n.GrossAmount = mutate(n.GrossAmount) },
		"signature_key": func(n *Notification) { n.SignatureKey = mutate(n.SignatureKey) },
		"signature_first_char": func(n *Notification) {
			n.SignatureKey = "0" + n.SignatureKey[1:]
			if n.SignatureKey == base.SignatureKey {
				n.SignatureKey = "1" + n.SignatureKey[1:]
			}
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			n := base
			fn(&n)
			if n.Verify(testServerKey) {
				t.Fatalf("mutated %s must not verify", name)
			}
		})
	}

	if base.Verify(mutate(testServerKey)) {
		t.Fatal("wrong server key must not verify")
	}
}

func TestVerifyEmptySignature(t *testing.T) {
	n := Notification{OrderID: "x", StatusCode: "200", GrossAmount: "1"}
	if n.Verify(testServerKey) {
		t.Fatal("empty signature must not verify")
	}
}

func TestCaptured(t *testing.T) {
	for status, want := range map[string]bool{
		TransactionCapture:    true,
		TransactionSettlement: true,
		TransactionPending:    false,
		TransactionDeny:       false,
		TransactionExpire:     false,
		TransactionCancel:     false,
		"":                    false,
	} {
		if got := (Notification{TransactionStatus: status}).Captured(); got != want {
			t.Errorf("Captured(%q) = %v, want %v", status, got, want)
		}
	}
}
