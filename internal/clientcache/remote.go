package clientcache

import (
	"context"
	"net/http"
	"strings"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/aquahimiya/catalogd/internal/domain"
)

// apiEnvelope is the {ok, data, error} wrapper of every catalog API response.
type apiEnvelope struct {
	OK    bool                `json:"ok"`
	Data  jsoniter.RawMessage `json:"data"`
	Error string              `json:"error"`
}

// HTTPRemote reads the catalog from a catalogd server.
type HTTPRemote struct {
	BaseURL string
}

func NewHTTPRemote(baseURL string) *HTTPRemote {
	return &HTTPRemote{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (r *HTTPRemote) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *HTTPRemote) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := r.get(ctx, "/categories", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *HTTPRemote) FetchSettings(ctx context.Context) (map[string]interface{}, error) {
	var values map[string]interface{}
	if err := r.get(ctx, "/settings", &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *HTTPRemote) get(ctx context.Context, path string, dest interface{}) error {
	var (
		body []byte
		code int
	)
	err := gout.GET(r.BaseURL+path).
		WithContext(ctx).
		SetHeader(gout.H{"Accept": "application/json"}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}

	var env apiEnvelope
	if err := jsonCodec.Unmarshal(body, &env); err != nil {
		return errors.Wrapf(err, "GET %s: status %d", path, code)
	}
	if code != http.StatusOK || !env.OK {
		return errors.Errorf("GET %s: status %d: %s", path, code, env.Error)
	}
	return errors.Wrapf(jsonCodec.Unmarshal(env.Data, dest), "decode %s", path)
}
