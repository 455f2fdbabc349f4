package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TypeQueue = "queue"
	TypeHTTP  = "http"

	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

type fileLayout struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig declares one sink for article load events.
type PublisherConfig struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`
	// MinArticles drops events carrying fewer articles. Zero forwards every successful load.
	MinArticles int                   `json:"min_articles" yaml:"min_articles"`
	Queue       *QueuePublisherConfig `json:"queue" yaml:"queue"`
	HTTP        *HTTPPublisherConfig  `json:"http" yaml:"http"`
}

type QueuePublisherConfig struct {
	Provider string                 `json:"provider" yaml:"provider"`
	AWS      *AWSSQSPublisherConfig `json:"aws" yaml:"aws"`
	SNS      *AWSSNSPublisherConfig `json:"sns" yaml:"sns"`
	GCP      *GCPQueueConfig        `json:"gcp" yaml:"gcp"`
}

// AWSCredentials selects the region and, optionally, static keys. Without keys the default
// AWS credential chain is used.
type AWSCredentials struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

type AWSSQSPublisherConfig struct {
	AWSCredentials `yaml:",inline"`
	QueueURL       string `json:"uri" yaml:"uri"`
	// MessageGroupID is required by FIFO queues; the event id doubles as deduplication id.
	MessageGroupID string `json:"message_group_id" yaml:"message_group_id"`
}

type AWSSNSPublisherConfig struct {
	AWSCredentials `yaml:",inline"`
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Subject        string `json:"subject" yaml:"subject"`
}

type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// EnabledValue defaults to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// ConfigRegistry is the validated content of a publishers file. It is read-only after loading.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

// LoadRegistry reads a YAML or JSON publishers file. ${VAR} references are expanded from the
// environment before decoding. Every invalid entry is reported, not just the first.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var layout fileLayout
	if err := decodeFile(filepath.Ext(path), []byte(os.ExpandEnv(string(raw))), &layout); err != nil {
		return nil, err
	}
	if len(layout.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(layout.Publishers)),
		idx:        make(map[string]int, len(layout.Publishers)),
	}
	var problems []error
	for i, entry := range layout.Publishers {
		cfg := normalize(entry)
		if err := validate(cfg); err != nil {
			problems = append(problems, fmt.Errorf("publishers[%d]: %w", i, err))
			continue
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			problems = append(problems, fmt.Errorf("publishers[%d]: duplicate publisher id %q", i, cfg.ID))
			continue
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return reg, nil
}

// decodeFile picks the decoder from the extension. Anything that is not .json goes through YAML,
// which also accepts JSON documents.
func decodeFile(ext string, data []byte, out *fileLayout) error {
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode json publishers: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode yaml publishers: %w", err)
	}
	return nil
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

func normalize(cfg PublisherConfig) PublisherConfig {
	trimAll(&cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.MinArticles < 0 {
		cfg.MinArticles = 0
	}

	if cfg.Queue != nil {
		q := *cfg.Queue
		q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
		if q.AWS != nil {
			a := *q.AWS
			trimAll(&a.QueueURL, &a.MessageGroupID, &a.Region, &a.AccessKeyID, &a.SecretAccessKey)
			q.AWS = &a
		}
		if q.SNS != nil {
			s := *q.SNS
			trimAll(&s.TopicARN, &s.Subject, &s.Region, &s.AccessKeyID, &s.SecretAccessKey)
			q.SNS = &s
		}
		if q.GCP != nil {
			g := *q.GCP
			trimAll(&g.ProjectID, &g.Topic, &g.CredentialsFile)
			q.GCP = &g
		}
		cfg.Queue = &q
	}

	if cfg.HTTP != nil {
		h := *cfg.HTTP
		trimAll(&h.URL)
		h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
		if h.Method == "" {
			h.Method = httpDefaultMethod
		}
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		h.Headers = cleanHeaders(h.Headers)
		cfg.HTTP = &h
	}
	return cfg
}

func cleanHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// missing collects the names of empty required fields.
type missing []string

func (m *missing) need(value, name string) {
	if value == "" {
		*m = append(*m, name)
	}
}

func (m missing) err() error {
	if len(m) == 0 {
		return nil
	}
	return fmt.Errorf("missing %s", strings.Join(m, ", "))
}

func validate(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	wrap := func(err error) error {
		if err == nil {
			return nil
		}
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	switch cfg.Type {
	case TypeHTTP:
		if cfg.HTTP == nil {
			return wrap(errors.New("http section is required"))
		}
		var m missing
		m.need(cfg.HTTP.URL, "http.url")
		return wrap(m.err())
	case TypeQueue:
		if cfg.Queue == nil {
			return wrap(errors.New("queue section is required"))
		}
		return wrap(validateQueue(cfg.Queue))
	case "":
		return wrap(errors.New("type is required"))
	default:
		return wrap(fmt.Errorf("type %q is not supported", cfg.Type))
	}
}

func validateQueue(q *QueuePublisherConfig) error {
	var m missing
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.AWS == nil {
			return errors.New("queue.aws section is required")
		}
		m.need(q.AWS.QueueURL, "queue.aws.uri")
		m.need(q.AWS.Region, "queue.aws.region")
		if err := validateKeys(q.AWS.AWSCredentials, "queue.aws"); err != nil {
			return err
		}
	case QueueProviderAWSSNS:
		if q.SNS == nil {
			return errors.New("queue.sns section is required")
		}
		m.need(q.SNS.TopicARN, "queue.sns.topic_arn")
		m.need(q.SNS.Region, "queue.sns.region")
		if err := validateKeys(q.SNS.AWSCredentials, "queue.sns"); err != nil {
			return err
		}
	case QueueProviderGCP:
		if q.GCP == nil {
			return errors.New("queue.gcp section is required")
		}
		m.need(q.GCP.ProjectID, "queue.gcp.project_id")
		m.need(q.GCP.Topic, "queue.gcp.topic")
	default:
		return fmt.Errorf("queue provider %q is not supported", q.Provider)
	}
	return m.err()
}

// validateKeys accepts both static keys or neither.
func validateKeys(c AWSCredentials, prefix string) error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key must be set together", prefix, prefix)
	}
	return nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns a copy of every configured publisher in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns the publishers not switched off.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
