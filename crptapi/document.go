/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

// DocTypeIntroduceGoods is the type of the "introduce goods into circulation" document.
// It is the only type that CreateDocument sends.
const DocTypeIntroduceGoods = "LP_INTRODUCE_GOODS"

// DateLayout is the layout of all date fields of Document and Product.
const DateLayout = "2006-01-02"

// Description holds the document's description section.
type Description struct {
	ParticipantInn string `json:"participantInn" validate:"required,inn"`
}

// Document is an "introduce goods" document. DocType is always sent as DocTypeIntroduceGoods.
type Document struct {
	Description    Description `json:"description"`
	DocID          string      `json:"doc_id" validate:"required"`
	DocStatus      string      `json:"doc_status" validate:"required"`
	DocType        string      `json:"doc_type"`
	ImportRequest  bool        `json:"importRequest"`
	OwnerInn       string      `json:"owner_inn" validate:"required,inn"`
	ParticipantInn string      `json:"participant_inn" validate:"required,inn"`
	ProducerInn    string      `json:"producer_inn" validate:"required,inn"`
	ProductionDate string      `json:"production_date" validate:"required,datetime=2006-01-02"`
	ProductionType string      `json:"production_type" validate:"required"`
	Products       []Product   `json:"products" validate:"required,min=1,dive"`
	RegDate        string      `json:"reg_date" validate:"omitempty,datetime=2006-01-02"`
	RegNumber      string      `json:"reg_number"`
}

// Product is a single unit of goods introduced by the document.
// At least one of UitCode and UituCode must be set.
type Product struct {
	CertificateDocument       string `json:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date" validate:"omitempty,datetime=2006-01-02"`
	CertificateDocumentNumber string `json:"certificate_document_number"`
	OwnerInn                  string `json:"owner_inn" validate:"required,inn"`
	ProducerInn               string `json:"producer_inn" validate:"required,inn"`
	ProductionDate            string `json:"production_date" validate:"required,datetime=2006-01-02"`
	TnvedCode                 string `json:"tnved_code" validate:"required,numeric"`
	UitCode                   string `json:"uit_code" validate:"required_without=UituCode"`
	UituCode                  string `json:"uitu_code" validate:"required_without=UitCode"`
}
