package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/sales_ledger/config"
	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
	"github.com/mmdatafocus/sales_ledger/workflow"
	"github.com/sirupsen/logrus"
)

const (
	formSalesFile   = "sales_file"
	formPricingFile = "pricing_file"
	formRepoFile    = "repo_file"

	headerRunId       = "X-Run-Id"
	headerLedgerRows  = "X-Ledger-Rows"
	headerDroppedRows = "X-Dropped-Rows"

	runLockKey = "sales-ledger:run"
	runLockTTL = 5 * time.Minute

	multipartOverheadBytes = 1 << 20
)

type stageErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Stage  string `json:"stage"`
	Table  string `json:"table,omitempty"`
	Column string `json:"column,omitempty"`
	Row    int    `json:"row,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ledgerApp carries the per-process collaborators of the HTTP handlers.
// Every request works on its own in-memory tables.
type ledgerApp struct {
	settings *config.Settings
	store    utils.ArtifactStore
	logger   *logrus.Logger
	publish  func(ctx context.Context, topic string, event config.LedgerEvent) (string, error)
}

func reconcileHandler(app *ledgerApp) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := app.logger
		ctx := c.Request.Context()
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, app.settings.MaxUploadBytes()*3+multipartOverheadBytes)

		format, err := models.ParseOutputFormat(c.DefaultPostForm("format", app.settings.OutputFormat))
		if err != nil || format == models.OutputFormatSQLite {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
			return
		}
		sortMode, err := models.ParseSortMode(c.DefaultPostForm("sort", app.settings.SortMode))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be chronological or lexical"})
			return
		}

		files := make(map[string][]byte, 3)
		for _, field := range []string{formSalesFile, formPricingFile, formRepoFile} {
			data, status, err := readUploadedFile(c, field, app.settings.MaxUploadBytes())
			if err != nil {
				c.JSON(status, gin.H{"error": err.Error()})
				return
			}
			files[field] = data
		}

		if app.settings.SerializeRuns {
			lock, err := config.ObtainRunLock(ctx, runLockKey, runLockTTL)
			if err != nil {
				config.LogError(logger, "uploads.go", "reconcileHandler", "ObtainRunLock", correlationId, err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "another reconciliation is running"})
				return
			}
			defer lock.Release(context.Background())
		}

		runId := uuid.NewString()
		ctx = utils.SetRunIdInContext(ctx, runId)
		c.Request = c.Request.WithContext(ctx)

		in, err := workflow.LoadLedgerInputs(files[formSalesFile], files[formPricingFile], files[formRepoFile])
		if err != nil {
			writeWorkflowError(c, err)
			return
		}
		result, err := workflow.RunLedgerWorkflow(ctx, in, models.LedgerOptions{RunId: runId, SortMode: sortMode})
		if err != nil {
			writeWorkflowError(c, err)
			return
		}

		data, err := utils.EncodeLedger(format, models.LedgerColumns, workflow.LedgerRows(result.Records))
		if err != nil {
			config.LogError(logger, "uploads.go", "reconcileHandler", "EncodeLedger", runId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode ledger"})
			return
		}
		key, err := utils.SaveLedgerArtifact(ctx, app.store, runId, format, data)
		if err != nil {
			config.LogError(logger, "uploads.go", "reconcileHandler", "SaveLedgerArtifact", runId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store ledger"})
			return
		}

		app.publishRunEvent(ctx, key, format, &result.Report, correlationId)

		subject, _ := utils.GetSubjectFromContext(ctx)
		logger.WithFields(logrus.Fields{
			"run_id":         runId,
			"correlation_id": correlationId,
			"subject":        subject,
			"artifact_key":   key,
			"format":         format,
			"bytes":          len(data),
		}).Info("ledger stored")

		c.Header(headerRunId, runId)
		c.Header(headerLedgerRows, strconv.Itoa(result.Report.LedgerRows))
		c.Header(headerDroppedRows, strconv.Itoa(result.Report.Dropped()))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
		c.Data(http.StatusOK, format.ContentType(), data)
	}
}

func (app *ledgerApp) publishRunEvent(ctx context.Context, key string, format models.OutputFormat, report *models.RunReport, correlationId string) {
	if app.publish == nil || app.settings.LedgerEventsTopic == "" {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		config.LogError(app.logger, "uploads.go", "publishRunEvent", "Marshal report", report.RunId, err)
		return
	}
	event := config.LedgerEvent{
		RunId:         report.RunId,
		ArtifactKey:   key,
		Format:        string(format),
		LedgerRows:    report.LedgerRows,
		DroppedRows:   report.Dropped(),
		CompletedAt:   time.Now(),
		CorrelationId: correlationId,
		Report:        raw,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := app.publish(pubCtx, app.settings.LedgerEventsTopic, event); err != nil {
		// publish failures never fail the run
		config.LogError(app.logger, "uploads.go", "publishRunEvent", "PublishLedgerEvent", report.RunId, err)
	}
}

func runArtifactHandler(app *ledgerApp) gin.HandlerFunc {
	return func(c *gin.Context) {
		runId := c.Param("runId")
		if _, err := uuid.Parse(runId); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		key, data, contentType, err := utils.LoadRunArtifact(c.Request.Context(), app.store, runId)
		writeArtifact(c, app, key, data, contentType, err)
	}
}

// latestDownloadHandler serves the most recent ledger at the legacy /download path.
func latestDownloadHandler(app *ledgerApp) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, data, contentType, err := utils.LoadLatestArtifact(c.Request.Context(), app.store)
		writeArtifact(c, app, key, data, contentType, err)
	}
}

func writeArtifact(c *gin.Context, app *ledgerApp, key string, data []byte, contentType string, err error) {
	if err != nil {
		if errors.Is(err, utils.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ledger not found"})
			return
		}
		config.LogError(app.logger, "uploads.go", "writeArtifact", "Get", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ledger"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	c.Data(http.StatusOK, contentType, data)
}

func readUploadedFile(c *gin.Context, field string, maxBytes int64) ([]byte, int, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge, errors.New("upload too large")
		}
		return nil, http.StatusBadRequest, fmt.Errorf("%s is required", field)
	}
	if fh.Size > maxBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%s exceeds %d bytes", field, maxBytes)
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read %s", field)
	}
	return data, http.StatusOK, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeWorkflowError maps input problems to 422 and anything else to 500.
func writeWorkflowError(c *gin.Context, err error) {
	se, ok := workflow.AsStageError(err)
	if !ok {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	status := http.StatusInternalServerError
	if errors.Is(err, workflow.ErrMalformedInput) || errors.Is(err, workflow.ErrAmbiguousMapping) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, stageErrorResponse{
		Error:  se.Error(),
		Kind:   string(se.Kind),
		Stage:  se.Stage,
		Table:  se.Table,
		Column: se.Column,
		Row:    se.Row,
		Value:  se.Value,
	})
}
