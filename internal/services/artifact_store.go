package services

import (
	"bytes"
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"catalogai/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Subdirectories of the working root. Filenames carry a timestamp plus random
// suffix, so concurrent uploads never collide and no locking is needed.
const (
	dirInput         = "Input"
	dirOutput        = "Output"
	dirErrorReports  = "ErrorReports"
	dirCustomImports = "CustomImports"
	dirImport        = "Import"
)

// ArtifactStore owns the on-disk working tree for upload, result, and report
// files, with optional archiving of result CSVs to S3.
type ArtifactStore struct {
	root     string
	s3Client *s3.S3
	bucket   string
}

// NewArtifactStore creates the working tree and, when configured, an S3
// client for archiving.
func NewArtifactStore(root string, s3cfg config.S3Config) (*ArtifactStore, error) {
	store := &ArtifactStore{root: root}

	for _, dir := range []string{dirInput, dirOutput, dirErrorReports, dirCustomImports, dirImport} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	if s3cfg.Enabled() {
		sess, err := session.NewSession(&aws.Config{
			Region:           aws.String("us-east-1"),
			Endpoint:         aws.String(s3cfg.Endpoint),
			Credentials:      credentials.NewStaticCredentials(s3cfg.AccessKey, s3cfg.SecretKey, ""),
			S3ForcePathStyle: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		store.s3Client = s3.New(sess)
		store.bucket = s3cfg.Bucket
	}

	return store, nil
}

// SaveInput writes an uploaded source file under Input/ with a unique name
func (s *ArtifactStore) SaveInput(filename string, reader io.Reader) (string, error) {
	name := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(filename))
	path := filepath.Join(s.root, dirInput, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create input file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write input file: %w", err)
	}

	return path, nil
}

// WriteOutputCSV stores a transformed result CSV under Output/ using the
// ai_generated_<inputbasename>_<timestamp>_<8hexrandom>.csv pattern, and
// archives it to S3 when configured (best effort).
func (s *ArtifactStore) WriteOutputCSV(inputFileName string, data []byte) (string, string, error) {
	base := strings.TrimSuffix(filepath.Base(inputFileName), filepath.Ext(inputFileName))
	name := fmt.Sprintf("ai_generated_%s_%s_%s.csv", base, time.Now().Format("20060102150405"), randomHex(4))
	path := filepath.Join(s.root, dirOutput, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write output file: %w", err)
	}

	if s.s3Client != nil {
		if err := s.archiveToS3(name, data); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to archive result CSV to S3")
		}
	}

	return name, path, nil
}

// WriteErrorReport stores a validation error report under ErrorReports/ using
// the error_report_<basename>_<timestamp>.csv pattern.
func (s *ArtifactStore) WriteErrorReport(inputFileName string, rows [][]string) (string, string, error) {
	base := strings.TrimSuffix(filepath.Base(inputFileName), filepath.Ext(inputFileName))
	name := fmt.Sprintf("error_report_%s_%s.csv", base, time.Now().Format("20060102150405"))
	path := filepath.Join(s.root, dirErrorReports, name)

	out, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create error report: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.WriteAll(rows); err != nil {
		return "", "", fmt.Errorf("failed to write error report: %w", err)
	}

	return name, path, nil
}

// SaveCustomImport writes a user-supplied override CSV under CustomImports/
func (s *ArtifactStore) SaveCustomImport(reader io.Reader) (string, error) {
	name := fmt.Sprintf("custom_import_%s.csv", uuid.New().String())
	path := filepath.Join(s.root, dirCustomImports, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create custom import file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write custom import file: %w", err)
	}

	return path, nil
}

// ImportScratchPath returns a transient path under Import/ for files handed
// to the catalog import step; callers must remove it when done.
func (s *ArtifactStore) ImportScratchPath() string {
	return filepath.Join(s.root, dirImport, fmt.Sprintf("import_%s.csv", uuid.New().String()))
}

// OutputPath resolves a stored output file name, rejecting path traversal
func (s *ArtifactStore) OutputPath(name string) (string, error) {
	return s.resolve(dirOutput, name)
}

// ErrorReportPath resolves a stored error report name, rejecting traversal
func (s *ArtifactStore) ErrorReportPath(name string) (string, error) {
	return s.resolve(dirErrorReports, name)
}

func (s *ArtifactStore) resolve(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	path := filepath.Join(s.root, dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes the given files, collecting errors instead of stopping at
// the first failure. Missing files are not errors.
func (s *ArtifactStore) Remove(paths ...string) []error {
	var errs []error
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	return errs
}

func (s *ArtifactStore) archiveToS3(name string, data []byte) error {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String("results/" + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	return err
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to a
		// uuid-derived suffix rather than panic.
		return uuid.New().String()[:n*2]
	}
	return hex.EncodeToString(buf)
}
