package domain

type TransactionType string

const (
	Depot   TransactionType = "DEPOT"
	Retrait TransactionType = "RETRAIT"
)

func TransactionTypes() []TransactionType {
	return []TransactionType{Depot, Retrait}
}

func (t TransactionType) Valid() bool {
	return t == Depot || t == Retrait
}

// CompteRef is a weak reference to a compte: only the id is known.
type CompteRef struct {
	ID string `json:"id"`
}

type Transaction struct {
	ID      string          `json:"id"`
	Date    string          `json:"date"`
	Montant float64         `json:"montant"`
	Type    TransactionType `json:"type"`
	Compte  CompteRef       `json:"compte"`
}

type TransactionRequest struct {
	Type     TransactionType `json:"type"`
	Montant  *float64        `json:"montant"`
	Date     string          `json:"date"`
	CompteID string          `json:"compteId"`
}
