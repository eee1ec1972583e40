package core

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/payment-desk/constants"
)

// Kind classifies a request file.
type Kind int

const (
	KindUnknown Kind = iota
	KindPayment
	KindReceipt
)

func (k Kind) String() string {
	switch k {
	case KindPayment:
		return "payment"
	case KindReceipt:
		return "receipt"
	default:
		return "unknown"
	}
}

// ErrUnrecognizedRequest is returned for filenames with no known request prefix.
var ErrUnrecognizedRequest = errors.New("unrecognized request filename")

// Envelope is what the directory protocol encodes in a request filename.
type Envelope struct {
	Name string // request filename, e.g. payment_request_42.txt
	Kind Kind
	ID   string // trailing identifier, e.g. 42
}

type prefixPair struct {
	kind     Kind
	request  string
	response string
}

var prefixes = []prefixPair{
	{KindPayment, constants.PaymentRequestPrefix, constants.PaymentResponsePrefix},
	{KindReceipt, constants.ReceiptRequestPrefix, constants.ReceiptResponsePrefix},
}

// ParseRequestName decodes a request filename. Names without a known prefix
// return an Envelope of KindUnknown and ErrUnrecognizedRequest.
func ParseRequestName(name string) (Envelope, error) {
	base := filepath.Base(name)
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(base, p.request); ok {
			id := strings.TrimPrefix(rest, "_")
			id = strings.TrimSuffix(id, filepath.Ext(id))
			return Envelope{Name: base, Kind: p.kind, ID: id}, nil
		}
	}
	return Envelope{Name: base, Kind: KindUnknown}, ErrUnrecognizedRequest
}

// ResponseName swaps the request prefix for the response prefix and keeps
// the trailing part of the name verbatim.
func (e Envelope) ResponseName() string {
	for _, p := range prefixes {
		if p.kind == e.Kind {
			return p.response + strings.TrimPrefix(e.Name, p.request)
		}
	}
	return ""
}
