package domain

type AccountType string

const (
	Courant AccountType = "COURANT"
	Epargne AccountType = "EPARGNE"
)

func AccountTypes() []AccountType {
	return []AccountType{Courant, Epargne}
}

func (t AccountType) Valid() bool {
	return t == Courant || t == Epargne
}

// Compte is a read-through copy of an account owned by the gateway.
type Compte struct {
	ID           string      `json:"id"`
	Solde        float64     `json:"solde"`
	DateCreation string      `json:"dateCreation"`
	Type         AccountType `json:"type"`
}

// CompteRequest is the saveCompte input. A nil Solde is sent as null.
type CompteRequest struct {
	Solde        *float64    `json:"solde"`
	DateCreation string      `json:"dateCreation"`
	Type         AccountType `json:"type"`
}
