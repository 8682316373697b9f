package modelrepository

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"model-parameters/internal/adapters/secondary/session"
	"model-parameters/internal/core/domain"
	ports "model-parameters/internal/core/ports/output"
)

const (
	modelsURI        = "/modelRepository/models"
	modelURI         = "/modelRepository/models/{modelId}"
	projectsURI      = "/modelRepository/projects"
	projectURI       = "/modelRepository/projects/{projectId}"
	contentsURI      = "/modelRepository/models/{modelId}/contents"
	contentURI       = "/modelRepository/models/{modelId}/contents/{fileId}"
	contentBodyURI   = "/modelRepository/models/{modelId}/contents/{fileId}/content"
	uploadFieldName  = "files"
	defaultPageLimit = 100
)

type collection[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type modelRepository struct {
	session  *session.Session
	pageSize int
}

// NewModelRepository creates the REST adapter for the model repository API.
func NewModelRepository(s *session.Session) ports.ModelRepository {
	return &modelRepository{session: s, pageSize: defaultPageLimit}
}

func (r *modelRepository) ListModelFiles(ctx context.Context, modelID string) ([]domain.ModelFile, error) {
	var files []domain.ModelFile
	for {
		var page collection[domain.ModelFile]
		resp, err := r.session.R(ctx).
			SetPathParam("modelId", modelID).
			SetQueryParams(map[string]string{
				"start": strconv.Itoa(len(files)),
				"limit": strconv.Itoa(r.pageSize),
			}).
			SetResult(&page).
			Get(contentsURI)
		if err := session.Check(resp, err); err != nil {
			if session.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrModelNotFound, modelID, err)
			}
			return nil, fmt.Errorf("list contents of model %s: %w", modelID, err)
		}

		files = append(files, page.Items...)
		if len(page.Items) == 0 || len(files) >= page.Count {
			break
		}
	}

	if files == nil {
		files = []domain.ModelFile{}
	}
	return files, nil
}

func (r *modelRepository) GetFileContent(ctx context.Context, modelID, fileID string) ([]byte, error) {
	resp, err := r.session.R(ctx).
		SetPathParams(map[string]string{"modelId": modelID, "fileId": fileID}).
		SetHeader("Accept", "*/*").
		Get(contentBodyURI)
	if err := session.Check(resp, err); err != nil {
		if session.IsNotFound(err) {
			return nil, fmt.Errorf("%w: file %s of model %s", domain.ErrFileNotFound, fileID, modelID)
		}
		return nil, fmt.Errorf("get content %s of model %s: %w", fileID, modelID, err)
	}
	return resp.Body(), nil
}

func (r *modelRepository) UploadFileContent(ctx context.Context, modelID string, content []byte, fileName string) error {
	err := r.postFile(ctx, modelID, content, fileName)
	if session.IsConflict(err) {
		// The service refuses a second file with the same name; swap it out.
		err = r.replaceFile(ctx, modelID, content, fileName)
	}
	if err != nil {
		return fmt.Errorf("upload %s to model %s: %w", fileName, modelID, err)
	}

	log.WithFields(log.Fields{
		"model_id": modelID,
		"file":     fileName,
		"bytes":    len(content),
	}).Debug("model file uploaded")
	return nil
}

func (r *modelRepository) postFile(ctx context.Context, modelID string, content []byte, fileName string) error {
	resp, err := r.session.R(ctx).
		SetPathParam("modelId", modelID).
		SetFileReader(uploadFieldName, fileName, bytes.NewReader(content)).
		Post(contentsURI)
	return session.Check(resp, err)
}

func (r *modelRepository) replaceFile(ctx context.Context, modelID string, content []byte, fileName string) error {
	files, err := r.ListModelFiles(ctx, modelID)
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.Name != fileName {
			continue
		}
		resp, err := r.session.R(ctx).
			SetPathParams(map[string]string{"modelId": modelID, "fileId": f.ID}).
			Delete(contentURI)
		if err := session.Check(resp, err); err != nil {
			return fmt.Errorf("delete previous %s: %w", fileName, err)
		}
	}
	return r.postFile(ctx, modelID, content, fileName)
}

func (r *modelRepository) GetModel(ctx context.Context, idOrName string) (*domain.Model, error) {
	return lookup[domain.Model](ctx, r.session, modelURI, "modelId", modelsURI, idOrName, domain.ErrModelNotFound)
}

func (r *modelRepository) GetProject(ctx context.Context, idOrName string) (*domain.Project, error) {
	return lookup[domain.Project](ctx, r.session, projectURI, "projectId", projectsURI, idOrName, domain.ErrProjectNotFound)
}

// lookup fetches an item directly when idOrName looks like an id and falls
// back to a name filter over the collection otherwise.
func lookup[T any](ctx context.Context, s *session.Session, itemURI, param, collectionURI, idOrName string, notFound error) (*T, error) {
	if domain.IsValidID(idOrName) {
		item := new(T)
		resp, err := s.R(ctx).SetPathParam(param, idOrName).SetResult(item).Get(itemURI)
		err = session.Check(resp, err)
		switch {
		case err == nil:
			return item, nil
		case !session.IsNotFound(err):
			return nil, err
		}
		// An id-shaped name is still a name.
	}

	var page collection[T]
	resp, err := s.R(ctx).
		SetQueryParam("filter", nameFilter(idOrName)).
		SetResult(&page).
		Get(collectionURI)
	if err := session.Check(resp, err); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", notFound, idOrName)
	}
	return &page.Items[0], nil
}

func nameFilter(name string) string {
	return fmt.Sprintf(`eq(name,"%s")`, strings.ReplaceAll(name, `"`, `\"`))
}
