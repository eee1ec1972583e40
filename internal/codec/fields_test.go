package codec

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Fields
	}{
		{
			name: "simple request",
			text: "CARD=4111111111111111\nEXP=12/30\nCVV=123\nAMOUNT=42.50\n",
			want: Fields{"CARD": "4111111111111111", "EXP": "12/30", "CVV": "123", "AMOUNT": "42.50"},
		},
		{
			name: "split on first equals only",
			text: "NOTE=a=b=c\n",
			want: Fields{"NOTE": "a=b=c"},
		},
		{
			name: "value whitespace and CRLF trimmed",
			text: "AMOUNT=  10.00 \r\nCVV=999\r\n",
			want: Fields{"AMOUNT": "10.00", "CVV": "999"},
		},
		{
			name: "lines without equals skipped",
			text: "garbage\nCARD=1234\n\nmore garbage",
			want: Fields{"CARD": "1234"},
		},
		{
			name: "last duplicate wins",
			text: "CARD=1111\nCARD=2222\n",
			want: Fields{"CARD": "2222"},
		},
		{
			name: "keys are case sensitive",
			text: "Payment_ID=a\nPAYMENT_ID=b\n",
			want: Fields{"Payment_ID": "a", "PAYMENT_ID": "b"},
		},
		{
			name: "no equals at all",
			text: "hello world\nno fields here",
			want: Fields{},
		},
		{
			name: "empty value kept",
			text: "AMOUNT=\n",
			want: Fields{"AMOUNT": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSerializeKeepsOrder(t *testing.T) {
	got := Serialize([]Field{{"STATUS", "DENIED"}, {"REASON", "InvalidCard"}})
	want := "STATUS=DENIED\nREASON=InvalidCard\n"
	if got != want {
		t.Errorf("Serialize = %q, want %q", got, want)
	}
	if Serialize(nil) != "" {
		t.Errorf("Serialize(nil) should be empty")
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"CARD=4111111111111111\nEXP=12/30\nCVV=123\nAMOUNT=42.50\n",
		"PAYMENT_ID=payab12cd\n",
		"B=2\nA=1\nC=x=y\n",
	}
	for _, in := range inputs {
		parsed := Parse(in)
		again := Parse(Serialize(parsed.Pairs()))
		if !reflect.DeepEqual(parsed, again) {
			t.Errorf("round trip of %q: got %v, want %v", in, again, parsed)
		}
	}
}

func TestPairsOrder(t *testing.T) {
	f := Fields{"REASON": "x", "STATUS": "ERROR", "EXTRA": "1", "ALPHA": "2"}
	got := f.Pairs("STATUS", "REASON", "MISSING")
	want := []Field{{"STATUS", "ERROR"}, {"REASON", "x"}, {"ALPHA", "2"}, {"EXTRA", "1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs = %v, want %v", got, want)
	}
}
