/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(doc *Document)
		signature  string
		wantFields []FieldError
	}{
		{
			name:      "valid document",
			modify:    func(doc *Document) {},
			signature: "sig",
		},
		{
			name:       "empty signature",
			modify:     func(doc *Document) {},
			signature:  "  ",
			wantFields: []FieldError{{Field: "signature", Err: "signature is required"}},
		},
		{
			name: "missing description participant INN",
			modify: func(doc *Document) {
				doc.Description.ParticipantInn = ""
			},
			signature:  "sig",
			wantFields: []FieldError{{Field: "description.participantInn", Err: "this field is required"}},
		},
		{
			name: "INN with letters",
			modify: func(doc *Document) {
				doc.ParticipantInn = "77012345ab"
			},
			signature:  "sig",
			wantFields: []FieldError{{Field: "participant_inn", Err: "must be an INN of 10 or 12 digits"}},
		},
		{
			name: "bad production date",
			modify: func(doc *Document) {
				doc.ProductionDate = "23.01.2024"
			},
			signature:  "sig",
			wantFields: []FieldError{{Field: "production_date", Err: "must be a date in YYYY-MM-DD format"}},
		},
		{
			name: "no products",
			modify: func(doc *Document) {
				doc.Products = nil
			},
			signature:  "sig",
			wantFields: []FieldError{{Field: "products", Err: "this field is required"}},
		},
		{
			name: "product without any UIT code",
			modify: func(doc *Document) {
				doc.Products[0].UitCode = ""
			},
			signature: "sig",
			wantFields: []FieldError{
				{Field: "products[0].uit_code", Err: "this field is required when UituCode is empty"},
				{Field: "products[0].uitu_code", Err: "this field is required when UitCode is empty"},
			},
		},
		{
			name: "product with UITU code only",
			modify: func(doc *Document) {
				doc.Products[0].UitCode = ""
				doc.Products[0].UituCode = "046000012345678901"
			},
			signature: "sig",
		},
		{
			name: "empty optional dates",
			modify: func(doc *Document) {
				doc.RegDate = ""
				doc.Products[0].CertificateDocumentDate = ""
			},
			signature: "sig",
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			doc := makeValidDocument()
			tt.modify(&doc)
			err := ValidateDocument(&doc, tt.signature)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			require.Equal(t, tt.wantFields, validationErr.Fields)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "doc_id", Err: "this field is required"},
		{Field: "signature", Err: "signature is required"},
	}}
	require.EqualError(t, err, "invalid document: doc_id: this field is required; signature: signature is required")
	require.ErrorIs(t, err, ErrInvalidDocument)
}
