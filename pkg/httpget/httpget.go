package httpget

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
)

type Option interface {
	Set(o *Opts)
}

type Opts struct {
	Header map[string]string
}

func (o Opts) Set(another *Opts) {
	*another = o
}

// Getter issues HTTP GETs. DoRequest buffers the whole body as a string,
// Download streams the body into w and reports the byte count. Both require
// the response status to be exactly 200.
type Getter interface {
	DoRequest(url string, opt ...Option) (string, error)
	Download(url string, w io.Writer, opt ...Option) (int64, error)
}

type getter struct {
	responseBodyFor func(url string, opts Opts) (io.ReadCloser, error)
}

// Redirects are not followed so that a 3xx status fails the exact-200 check.
var noRedirectClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func New() Getter {
	return &getter{
		responseBodyFor: func(url string, opts Opts) (io.ReadCloser, error) {
			req, err := http.NewRequest(http.MethodGet, url, &bytes.Buffer{})
			if err != nil {
				return nil, err
			}

			if header := opts.Header; header != nil {
				for k, v := range header {
					req.Header.Add(k, v)
				}
			}

			res, err := noRedirectClient.Do(req)
			if err != nil {
				return nil, err
			}

			if res.StatusCode != http.StatusOK {
				defer res.Body.Close()
				body, _ := ioutil.ReadAll(io.LimitReader(res.Body, 512))
				snippet := string(body)
				if len(snippet) > 0 {
					return nil, fmt.Errorf("GET %s: status = %d != 200: %s", url, res.StatusCode, snippet)
				}
				return nil, fmt.Errorf("GET %s: status = %d != 200", url, res.StatusCode)
			}

			return res.Body, nil
		},
	}
}

func NewTester(expectations map[string]string) Getter {
	return &getter{
		responseBodyFor: func(url string, opts Opts) (io.ReadCloser, error) {
			res, ok := expectations[url]
			if !ok {
				return nil, fmt.Errorf("unexpected input: url=%v, opts=%v", url, opts)
			}
			r := ioutil.NopCloser(bytes.NewReader([]byte(res)))
			return r, nil
		},
	}
}

func (t *getter) DoRequest(url string, opt ...Option) (string, error) {
	opts := &Opts{}
	for _, o := range opt {
		o.Set(opts)
	}

	res, err := t.responseBodyFor(url, *opts)
	if err != nil {
		return "", err
	}
	defer res.Close()

	bytes, err := ioutil.ReadAll(res)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func (t *getter) Download(url string, w io.Writer, opt ...Option) (int64, error) {
	opts := &Opts{}
	for _, o := range opt {
		o.Set(opts)
	}

	res, err := t.responseBodyFor(url, *opts)
	if err != nil {
		return 0, err
	}
	defer res.Close()

	return io.Copy(w, res)
}
