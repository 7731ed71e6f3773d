// Package evidence assembles zip-based evidence packs bundling findings
// artifacts, an optional logs tree, and a trailing metadata.json manifest.
package evidence

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/agentic-radar/radar/internal/objectstore"
	apperrors "github.com/agentic-radar/radar/pkg/errors"
	"github.com/agentic-radar/radar/pkg/types"
)

// Result describes the evidence pack that was written, and, if an object
// store was configured, where it was additionally stored.
type Result struct {
	PackPath   string
	Metadata   map[string]interface{}
	StoredPath string
}

// Builder assembles evidence packs, optionally persisting the finished
// archive into an ObjectStore.
type Builder struct {
	ObjectStore objectstore.ObjectStore
}

// NewBuilder builds an evidence Builder. store may be nil to skip the
// object-store persistence step.
func NewBuilder(store objectstore.ObjectStore) Builder {
	return Builder{ObjectStore: store}
}

// Options configures a single Build call.
type Options struct {
	FindingsPaths []string
	LogsPath      string
	TraceIDs      []string
	OutputPath    string
}

// Build writes a zip archive containing, in order: every findings file
// (under findings/), the logs tree if given (under logs/, sorted by
// relative path), and a trailing metadata.json manifest. The archive is
// written to a temp file in the output directory and renamed into place
// so a reader never observes a partially written pack.
func (b Builder) Build(opts Options) (Result, error) {
	if len(opts.FindingsPaths) == 0 {
		return Result{}, apperrors.NewEvidencePackError("at least one findings file must be provided")
	}
	for _, path := range opts.FindingsPaths {
		if _, err := os.Stat(path); err != nil {
			return Result{}, apperrors.NewEvidencePackError("findings file '" + path + "' does not exist")
		}
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(opts.FindingsPaths[0]), "evidence-pack.zip")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return Result{}, apperrors.NewEvidencePackError("failed to create output directory: " + err.Error())
	}

	traceIDs := opts.TraceIDs
	if traceIDs == nil {
		traceIDs = []string{}
	}
	metadata := map[string]interface{}{
		"artifact_type": "agentic-radar-evidence",
		"created_at":    types.NowUTCISO(),
		"findings":      []string{},
		"logs":          []string{},
		"trace_ids":     traceIDs,
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(outputPath), ".evidence-pack-*.zip")
	if err != nil {
		return Result{}, apperrors.NewEvidencePackError("failed to create temp file: " + err.Error())
	}
	tmpPath := tmpFile.Name()

	if err := writeArchive(tmpFile, opts, metadata); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return Result{}, err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return Result{}, apperrors.NewEvidencePackError("failed to finalize archive: " + err.Error())
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return Result{}, apperrors.NewEvidencePackError("failed to rename archive into place: " + err.Error())
	}

	result := Result{PackPath: outputPath, Metadata: metadata}

	if b.ObjectStore != nil {
		stored, err := b.ObjectStore.PutFile(outputPath, filepath.Base(outputPath))
		if err != nil {
			return result, err
		}
		result.StoredPath = stored
	}

	return result, nil
}

func writeArchive(w io.Writer, opts Options, metadata map[string]interface{}) error {
	archive := zip.NewWriter(w)

	findingsEntries := make([]string, 0, len(opts.FindingsPaths))
	for _, findingsPath := range opts.FindingsPaths {
		arcname := "findings/" + filepath.Base(findingsPath)
		if err := writeArchiveFile(archive, findingsPath, arcname); err != nil {
			archive.Close()
			return apperrors.NewEvidencePackError("failed to write '" + findingsPath + "': " + err.Error())
		}
		findingsEntries = append(findingsEntries, arcname)
	}
	metadata["findings"] = findingsEntries

	var logEntries []string
	if opts.LogsPath != "" {
		entries, err := writeLogs(archive, opts.LogsPath)
		if err != nil {
			archive.Close()
			return err
		}
		logEntries = entries
	}
	metadata["logs"] = logEntries

	metadataJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		archive.Close()
		return apperrors.NewEvidencePackError("failed to marshal metadata: " + err.Error())
	}
	writer, err := archive.CreateHeader(&zip.FileHeader{Name: "metadata.json", Method: zip.Deflate})
	if err != nil {
		archive.Close()
		return apperrors.NewEvidencePackError("failed to create metadata entry: " + err.Error())
	}
	if _, err := writer.Write(metadataJSON); err != nil {
		archive.Close()
		return apperrors.NewEvidencePackError("failed to write metadata entry: " + err.Error())
	}

	return archive.Close()
}

func writeLogs(archive *zip.Writer, logsPath string) ([]string, error) {
	info, err := os.Stat(logsPath)
	if err != nil {
		return nil, apperrors.NewEvidencePackError("logs path '" + logsPath + "' does not exist")
	}

	if !info.IsDir() {
		arcname := "logs/" + filepath.Base(logsPath)
		if err := writeArchiveFile(archive, logsPath, arcname); err != nil {
			return nil, apperrors.NewEvidencePackError("failed to write '" + logsPath + "': " + err.Error())
		}
		return []string{arcname}, nil
	}

	var files []string
	err = filepath.Walk(logsPath, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil || fi.IsDir() {
			return walkErr
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, apperrors.NewEvidencePackError("failed to walk logs path: " + err.Error())
	}
	sort.Strings(files)

	entries := make([]string, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(logsPath, file)
		if err != nil {
			return nil, apperrors.NewEvidencePackError("failed to compute relative path: " + err.Error())
		}
		arcname := "logs/" + filepath.ToSlash(rel)
		if err := writeArchiveFile(archive, file, arcname); err != nil {
			return nil, apperrors.NewEvidencePackError("failed to write '" + file + "': " + err.Error())
		}
		entries = append(entries, arcname)
	}
	return entries, nil
}

func writeArchiveFile(archive *zip.Writer, sourcePath, arcname string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = arcname
	header.Method = zip.Deflate

	writer, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)
	return err
}
