package models

import "time"

// SellerProfile is the client-facing view of a Seller. It never carries the
// password hash or any wallet key material.
type SellerProfile struct {
	ID               string     `json:"id"`
	BusinessName     string     `json:"businessName"`
	Email            string     `json:"email"`
	Country          string     `json:"country"`
	WalletAccountID  *string    `json:"walletAccountId"`
	WalletNetwork    *string    `json:"walletNetwork"`
	WalletEVMAddress *string    `json:"walletEvmAddress"`
	VerifiedAt       *time.Time `json:"verifiedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func NewSellerProfile(s *Seller) SellerProfile {
	p := SellerProfile{
		ID:           s.ID,
		BusinessName: s.BusinessName,
		Email:        s.Email,
		Country:      s.Country,
		VerifiedAt:   s.VerifiedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if w := s.Wallet; w != nil {
		p.WalletAccountID = &w.AccountID
		p.WalletNetwork = &w.Network
		if w.EVMAddress != "" {
			p.WalletEVMAddress = &w.EVMAddress
		}
	}
	return p
}
