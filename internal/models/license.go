// internal/models/license.go
package models

import "time"

type Track struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	ArtistID   string      `json:"artistId"`
	ArtistName string      `json:"artistName,omitempty"`
	Genre      string      `json:"genre,omitempty"`
	Status     TrackStatus `json:"status"`
	FileHash   string      `json:"fileHash,omitempty"`
	TxHash     string      `json:"blockchainTx,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OwnershipTransfer struct {
	ID             string         `json:"id"`
	TrackID        string         `json:"trackId"`
	CurrentOwnerID string         `json:"currentOwnerId"`
	NewOwnerID     string         `json:"newOwnerId"`
	Status         TransferStatus `json:"status"`
	TxHash         string         `json:"blockchainTx,omitempty"`
	CertificateURL string         `json:"certificateUrl,omitempty"`
	RequestedAt    time.Time      `json:"requestedAt"`
	PublishedAt    *time.Time     `json:"publishedAt,omitempty"`
}

type LicenseRequest struct {
	ID          string        `json:"id,omitempty"`
	TrackID     string        `json:"trackId"`
	RequesterID string        `json:"requesterId"`
	Purpose     string        `json:"purpose"`
	Usage       string        `json:"usage"`
	Duration    string        `json:"duration"`
	Territory   string        `json:"territory"`
	Fee         float64       `json:"fee,omitempty"`
	Status      LicenseStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}
