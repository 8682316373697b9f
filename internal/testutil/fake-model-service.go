package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-parameters/internal/core/domain"
)

// FakeFile is one stored model file.
type FakeFile struct {
	ID      string
	Name    string
	Content []byte
}

// FakeTable is one table served by the fake analytics endpoints.
type FakeTable struct {
	Columns []domain.Column
	Rows    [][]any
}

// FakeModelService mimics the model-repository and tabular-store REST
// endpoints in memory. Create it with NewFakeModelService and close it when
// done.
type FakeModelService struct {
	Server *httptest.Server

	// Token, when set, must be presented as a bearer token.
	Token string
	// PageSize caps the contents page regardless of the requested limit.
	PageSize int
	// UploadStatus, when set, is returned for every upload instead of
	// storing the file.
	UploadStatus int

	mu       sync.Mutex
	models   map[string]domain.Model
	projects map[string]domain.Project
	files    map[string][]FakeFile
	tables   map[string]FakeTable
	wheres   []string
	requests []string
	nextID   int
}

var nameFilter = regexp.MustCompile(`^eq\(name,"(.*)"\)$`)

func NewFakeModelService() *FakeModelService {
	gin.SetMode(gin.TestMode)

	f := &FakeModelService{
		models:   map[string]domain.Model{},
		projects: map[string]domain.Project{},
		files:    map[string][]FakeFile{},
		tables:   map[string]FakeTable{},
	}

	r := gin.New()
	r.Use(f.record, f.authorize)

	repo := r.Group("/modelRepository")
	repo.GET("/models", f.listModels)
	repo.GET("/models/:id", f.getModel)
	repo.GET("/models/:id/contents", f.listContents)
	repo.POST("/models/:id/contents", f.uploadContent)
	repo.GET("/models/:id/contents/:fileId/content", f.getContent)
	repo.DELETE("/models/:id/contents/:fileId", f.deleteContent)
	repo.GET("/projects", f.listProjects)
	repo.GET("/projects/:id", f.getProject)

	r.GET("/casManagement/servers/:server/caslibs/:caslib/tables/:table/columns", f.listColumns)
	r.GET("/casRowSets/servers/:server/caslibs/:caslib/tables/:table/rows", f.listRows)

	f.Server = httptest.NewServer(r)
	return f
}

func (f *FakeModelService) URL() string { return f.Server.URL }

func (f *FakeModelService) Close() { f.Server.Close() }

func (f *FakeModelService) AddModel(m domain.Model) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models[m.ID] = m
}

func (f *FakeModelService) AddProject(p domain.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p
}

// AddFile stores a file on a model and returns its generated id.
func (f *FakeModelService) AddFile(modelID, name string, content []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addFileLocked(modelID, name, content)
}

func (f *FakeModelService) addFileLocked(modelID, name string, content []byte) string {
	f.nextID++
	id := fmt.Sprintf("file-%d", f.nextID)
	f.files[modelID] = append(f.files[modelID], FakeFile{ID: id, Name: name, Content: content})
	return id
}

// Files returns a copy of the model's stored files.
func (f *FakeModelService) Files(modelID string) []FakeFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeFile(nil), f.files[modelID]...)
}

func (f *FakeModelService) AddTable(loc domain.TableLocation, t FakeTable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[tableKey(loc.Server, loc.Caslib, loc.Table)] = t
}

// Wheres returns the where parameters received by the rows endpoint.
func (f *FakeModelService) Wheres() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.wheres...)
}

// Requests returns "METHOD path" for every request received.
func (f *FakeModelService) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func tableKey(server, caslib, table string) string {
	return server + "/" + caslib + "/" + table
}

func (f *FakeModelService) record(c *gin.Context) {
	start := time.Now()
	f.mu.Lock()
	f.requests = append(f.requests, c.Request.Method+" "+c.Request.URL.Path)
	f.mu.Unlock()

	c.Next()

	log.WithFields(log.Fields{
		"status":     c.Writer.Status(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"latency_ms": time.Since(start).Milliseconds(),
		"request_id": c.GetHeader("X-Request-ID"),
	}).Debug("fake model service request")
}

func (f *FakeModelService) authorize(c *gin.Context) {
	if f.Token != "" && c.GetHeader("Authorization") != "Bearer "+f.Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	c.Next()
}

func collection(items any, count int) gin.H {
	return gin.H{"items": items, "count": count}
}

func (f *FakeModelService) listModels(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := []domain.Model{}
	m := nameFilter.FindStringSubmatch(c.Query("filter"))
	for _, model := range f.models {
		if m == nil || model.Name == m[1] {
			items = append(items, model)
		}
	}
	c.JSON(http.StatusOK, collection(items, len(items)))
}

func (f *FakeModelService) getModel(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	model, ok := f.models[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "model not found"})
		return
	}
	c.JSON(http.StatusOK, model)
}

func (f *FakeModelService) listProjects(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := []domain.Project{}
	m := nameFilter.FindStringSubmatch(c.Query("filter"))
	for _, project := range f.projects {
		if m == nil || project.Name == m[1] {
			items = append(items, project)
		}
	}
	c.JSON(http.StatusOK, collection(items, len(items)))
}

func (f *FakeModelService) getProject(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	project, ok := f.projects[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "project not found"})
		return
	}
	c.JSON(http.StatusOK, project)
}

func (f *FakeModelService) listContents(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	modelID := c.Param("id")
	if _, ok := f.models[modelID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "model not found"})
		return
	}

	files := f.files[modelID]
	start, _ := strconv.Atoi(c.DefaultQuery("start", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if f.PageSize > 0 && (limit <= 0 || limit > f.PageSize) {
		limit = f.PageSize
	}

	items := []domain.ModelFile{}
	for i := start; i < len(files) && len(items) < limit; i++ {
		items = append(items, domain.ModelFile{ID: files[i].ID, Name: files[i].Name})
	}
	c.JSON(http.StatusOK, collection(items, len(files)))
}

func (f *FakeModelService) getContent(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, file := range f.files[c.Param("id")] {
		if file.ID == c.Param("fileId") {
			c.Data(http.StatusOK, "application/octet-stream", file.Content)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
}

func (f *FakeModelService) deleteContent(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	modelID := c.Param("id")
	files := f.files[modelID]
	for i, file := range files {
		if file.ID == c.Param("fileId") {
			f.files[modelID] = append(files[:i:i], files[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
}

func (f *FakeModelService) uploadContent(c *gin.Context) {
	if f.UploadStatus != 0 {
		c.JSON(f.UploadStatus, gin.H{"message": "upload rejected"})
		return
	}
	header, err := c.FormFile("files")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	modelID := c.Param("id")
	if _, ok := f.models[modelID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "model not found"})
		return
	}
	for _, file := range f.files[modelID] {
		if file.Name == header.Filename {
			c.JSON(http.StatusConflict, gin.H{"message": "file already exists"})
			return
		}
	}
	id := f.addFileLocked(modelID, header.Filename, content)
	c.JSON(http.StatusCreated, domain.ModelFile{ID: id, Name: header.Filename})
}

func (f *FakeModelService) listColumns(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tables[tableKey(c.Param("server"), c.Param("caslib"), c.Param("table"))]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "table not found"})
		return
	}
	c.JSON(http.StatusOK, collection(t.Columns, len(t.Columns)))
}

var whereEquals = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)='(.*)'$`)

func (f *FakeModelService) listRows(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	where := c.Query("where")
	if where != "" {
		f.wheres = append(f.wheres, where)
	}

	t, ok := f.tables[tableKey(c.Param("server"), c.Param("caslib"), c.Param("table"))]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "table not found"})
		return
	}

	column, value := -1, ""
	if m := whereEquals.FindStringSubmatch(where); m != nil {
		for i, col := range t.Columns {
			if col.Name == m[1] {
				column = i
			}
		}
		value = strings.ReplaceAll(m[2], "''", "'")
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	items := []gin.H{}
	for _, row := range t.Rows {
		if len(items) >= limit {
			break
		}
		if column >= 0 && (column >= len(row) || fmt.Sprint(row[column]) != value) {
			continue
		}
		items = append(items, gin.H{"cells": row})
	}
	c.JSON(http.StatusOK, collection(items, len(items)))
}
