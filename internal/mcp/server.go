package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/choplin/savemeta/internal/application"
	"github.com/choplin/savemeta/internal/integrity"
	"github.com/choplin/savemeta/internal/metadata"
	"github.com/choplin/savemeta/internal/usecase"
)

// Server wraps the MCP server with savemeta-specific functionality
type Server struct {
	server  *mcp.Server
	session *usecase.Session
}

// NewServer creates a new MCP server over an open session
func NewServer(session *usecase.Session, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "savemeta",
		Version: version,
	}, nil)

	s := &Server{
		server:  mcpServer,
		session: session,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "savemeta_register",
		Description: "Record the checksum and size of files in the save directory",
	}, s.handleRegister)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "savemeta_unregister",
		Description: "Stop tracking a file without touching it on disk",
	}, s.handleUnregister)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "savemeta_validate",
		Description: "Verify tracked files against their recorded checksums",
	}, s.handleValidate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "savemeta_reconcile",
		Description: "Forget tracked files that no longer exist on disk",
	}, s.handleReconcile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "savemeta_stats",
		Description: "Show operation counters and disk usage of tracked files",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "savemeta_list",
		Description: "List tracked files, most recently modified first",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "savemeta_info",
		Description: "Get the recorded metadata of one tracked file",
	}, s.handleInfo)
}

// Input/Output types for each tool

type RegisterInput struct {
	Filenames       []string `json:"filenames" jsonschema:"Names of files inside the save directory"`
	ProducerVersion *string  `json:"producerVersion,omitempty" jsonschema:"Version of the program that wrote the files"`
	ProducerLevel   *int     `json:"producerLevel,omitempty" jsonschema:"Progress level recorded by the producer"`
}

type RegisterOutput struct {
	Entries []EntryOutput `json:"entries"`
	Errors  []string      `json:"errors,omitempty"`
}

type UnregisterInput struct {
	Filename string `json:"filename" jsonschema:"Name of the tracked file to forget"`
}

type UnregisterOutput struct {
	Message string `json:"message"`
	Tracked bool   `json:"tracked"`
}

type ValidateInput struct {
	Filenames []string `json:"filenames,omitempty" jsonschema:"Files to check; every tracked file when empty"`
}

type ValidateOutput struct {
	Total   int                `json:"total"`
	Valid   int                `json:"valid"`
	Invalid int                `json:"invalid"`
	Missing int                `json:"missing"`
	Results []integrity.Result `json:"results"`
	RunID   string             `json:"runId,omitempty"`
}

type ReconcileInput struct{}

type ReconcileOutput struct {
	Removed []string `json:"removed"`
	Count   int      `json:"count"`
	RunID   string   `json:"runId,omitempty"`
}

type StatsInput struct{}

type StatsOutput struct {
	TrackedFiles          int     `json:"trackedFiles"`
	TotalSaveOperations   int64   `json:"totalSaveOperations"`
	TotalLoadOperations   int64   `json:"totalLoadOperations"`
	LastSuccessfulSaveAt  string  `json:"lastSuccessfulSaveAt,omitempty"`
	LastSuccessfulLoadAt  string  `json:"lastSuccessfulLoadAt,omitempty"`
	AverageEntrySizeBytes float64 `json:"averageEntrySizeBytes"`
	TotalDiskUsageBytes   int64   `json:"totalDiskUsageBytes"`
}

type ListInput struct {
	BackupsOnly *bool `json:"backupsOnly,omitempty" jsonschema:"Only list files following the backup naming convention"`
}

type ListOutput struct {
	Entries []EntryOutput `json:"entries"`
}

type InfoInput struct {
	Filename string `json:"filename" jsonschema:"Name of the tracked file"`
}

type EntryOutput struct {
	Filename          string `json:"filename"`
	Checksum          string `json:"checksum"`
	ChecksumAlgorithm string `json:"checksumAlgorithm"`
	SizeBytes         int64  `json:"sizeBytes"`
	CreatedAt         string `json:"createdAt"`
	LastModifiedAt    string `json:"lastModifiedAt"`
	LastAccessedAt    string `json:"lastAccessedAt,omitempty"`
	IsBackupVariant   bool   `json:"isBackupVariant"`
	RegistrationCount int64  `json:"registrationCount"`
	ProducerVersion   string `json:"producerVersion"`
	ProducerLevel     int    `json:"producerLevel"`
}

func toEntryOutput(e metadata.FileEntry) EntryOutput {
	return EntryOutput{
		Filename:          e.Filename,
		Checksum:          e.Checksum,
		ChecksumAlgorithm: string(e.ChecksumAlgorithm),
		SizeBytes:         e.SizeBytes,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
		LastModifiedAt:    e.LastModifiedAt.Format(time.RFC3339),
		LastAccessedAt:    formatOptionalTime(e.LastAccessedAt),
		IsBackupVariant:   e.IsBackupVariant,
		RegistrationCount: e.RegistrationCount,
		ProducerVersion:   e.ProducerVersion,
		ProducerLevel:     e.ProducerLevel,
	}
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Tool handlers

func (s *Server) handleRegister(ctx context.Context, req *mcp.CallToolRequest, input RegisterInput) (*mcp.CallToolResult, RegisterOutput, error) {
	regInput := application.RegisterInput{Filenames: input.Filenames}
	if input.ProducerVersion != nil {
		regInput.ProducerVersion = *input.ProducerVersion
	}
	if input.ProducerLevel != nil {
		regInput.ProducerLevel = *input.ProducerLevel
	}

	entries, err := application.RegisterFiles(s.session.Store, regInput)
	if err != nil && len(entries) == 0 {
		return nil, RegisterOutput{}, fmt.Errorf("failed to register files: %w", err)
	}

	out := RegisterOutput{Entries: make([]EntryOutput, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, toEntryOutput(e))
	}
	if err != nil {
		out.Errors = []string{err.Error()}
	}
	return nil, out, nil
}

func (s *Server) handleUnregister(ctx context.Context, req *mcp.CallToolRequest, input UnregisterInput) (*mcp.CallToolResult, UnregisterOutput, error) {
	_, tracked := s.session.Store.Entry(input.Filename)
	if err := s.session.Store.Unregister(input.Filename); err != nil {
		return nil, UnregisterOutput{}, fmt.Errorf("failed to unregister %s: %w", input.Filename, err)
	}

	msg := fmt.Sprintf("Stopped tracking '%s'", input.Filename)
	if !tracked {
		msg = fmt.Sprintf("'%s' was not tracked", input.Filename)
	}
	return nil, UnregisterOutput{Message: msg, Tracked: tracked}, nil
}

func (s *Server) handleValidate(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, ValidateOutput, error) {
	outcome := s.session.Validate(ctx, input.Filenames)
	report := outcome.Report

	return nil, ValidateOutput{
		Total:   report.Total,
		Valid:   report.Valid,
		Invalid: report.Invalid,
		Missing: report.Missing,
		Results: report.Results,
		RunID:   outcome.RunID,
	}, nil
}

func (s *Server) handleReconcile(ctx context.Context, req *mcp.CallToolRequest, input ReconcileInput) (*mcp.CallToolResult, ReconcileOutput, error) {
	outcome, err := s.session.Reconcile(ctx)
	if err != nil {
		return nil, ReconcileOutput{}, fmt.Errorf("failed to reconcile: %w", err)
	}

	return nil, ReconcileOutput{
		Removed: outcome.Removed,
		Count:   len(outcome.Removed),
		RunID:   outcome.RunID,
	}, nil
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	stats := s.session.Integrity.ComputeStatistics()

	return nil, StatsOutput{
		TrackedFiles:          len(s.session.Store.Entries()),
		TotalSaveOperations:   stats.TotalSaveOperations,
		TotalLoadOperations:   stats.TotalLoadOperations,
		LastSuccessfulSaveAt:  formatOptionalTime(stats.LastSuccessfulSaveAt),
		LastSuccessfulLoadAt:  formatOptionalTime(stats.LastSuccessfulLoadAt),
		AverageEntrySizeBytes: stats.AverageEntrySizeBytes,
		TotalDiskUsageBytes:   stats.TotalDiskUsageBytes,
	}, nil
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	backupsOnly := input.BackupsOnly != nil && *input.BackupsOnly

	entries := make([]EntryOutput, 0)
	for _, e := range s.session.Store.Entries() {
		if backupsOnly && !e.IsBackupVariant {
			continue
		}
		entries = append(entries, toEntryOutput(e))
	}

	return nil, ListOutput{Entries: entries}, nil
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest, input InfoInput) (*mcp.CallToolResult, EntryOutput, error) {
	entry, ok := s.session.Store.Entry(input.Filename)
	if !ok {
		return nil, EntryOutput{}, fmt.Errorf("file not tracked: %s", input.Filename)
	}

	return nil, toEntryOutput(entry), nil
}
