// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

// ObjectPutter is the slice of the S3 API used to store certificates.
type ObjectPutter interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// TransferCertificate is the document issued for a published ownership
// transfer.
type TransferCertificate struct {
	CertificateID  string    `json:"certificateId"`
	TransferID     string    `json:"transferId"`
	TrackID        string    `json:"trackId"`
	PreviousOwner  string    `json:"previousOwnerId"`
	NewOwner       string    `json:"newOwnerId"`
	TransactionTx  string    `json:"blockchainTx"`
	TransactionFee string    `json:"fee,omitempty"`
	IssuedAt       time.Time `json:"issuedAt"`
}

type CertificateService struct {
	s3Client ObjectPutter
	aws      config.AWSConfig
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewCertificateService(cfg config.AWSConfig, logger logrus.FieldLogger) (*CertificateService, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &CertificateService{aws: cfg, logger: logger, now: time.Now}

	if cfg.AccessKeyID == "" {
		// Without credentials certificates are not stored.
		return s, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	s.s3Client = s3.New(sess)
	return s, nil
}

// WithObjectStore swaps the S3 client.
func (s *CertificateService) WithObjectStore(client ObjectPutter) *CertificateService {
	s.s3Client = client
	return s
}

func (s *CertificateService) Enabled() bool {
	return s.s3Client != nil
}

// IssueTransferCertificate stores the certificate of a confirmed transfer
// and returns its public URL. It returns an empty URL when no object store
// is configured.
func (s *CertificateService) IssueTransferCertificate(ctx context.Context, transfer *models.OwnershipTransfer, tx models.BlockchainTransaction) (string, error) {
	if transfer == nil {
		return "", fmt.Errorf("transfer is required")
	}
	if tx.Status != models.TransactionStatusConfirmed {
		return "", fmt.Errorf("transaction %s is not confirmed", tx.Hash)
	}

	cert := TransferCertificate{
		CertificateID:  uuid.New().String(),
		TransferID:     transfer.ID,
		TrackID:        transfer.TrackID,
		PreviousOwner:  transfer.CurrentOwnerID,
		NewOwner:       transfer.NewOwnerID,
		TransactionTx:  tx.Hash,
		TransactionFee: tx.Fee,
		IssuedAt:       s.now().UTC(),
	}

	if s.s3Client == nil {
		s.logger.WithField("transfer_id", transfer.ID).Debug("Certificate storage disabled")
		return "", nil
	}

	body, err := json.Marshal(cert)
	if err != nil {
		return "", fmt.Errorf("failed to encode certificate: %w", err)
	}

	key := s.certificateKey(cert)
	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload certificate: %w", err)
	}

	url := s.objectURL(key)
	s.logger.WithFields(logrus.Fields{
		"transfer_id":    transfer.ID,
		"certificate_id": cert.CertificateID,
	}).Info("Transfer certificate issued")
	return url, nil
}

func (s *CertificateService) certificateKey(cert TransferCertificate) string {
	return fmt.Sprintf("certificates/%s/%s_%s.json",
		cert.TransferID, cert.IssuedAt.Format("20060102"), cert.CertificateID[:8])
}

func (s *CertificateService) objectURL(key string) string {
	if s.aws.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.aws.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.aws.S3Bucket, s.aws.Region, key)
}
