package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/logger"
)

var errNotConnected = errors.New("pubsub: client not connected")

// Client holds the Pub/Sub v2 connection plus the topic and subscription
// names this service is configured with.
type Client struct {
	client *pubsub.Client
	names  resourceNames
	cfg    config.PubSubConfig
}

// NewClient connects and verifies the orders and wallet topics exist. Only
// the worker consumes, so the subscription is checked on request.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger, requireSubscription bool) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errors.New("pubsub: gcp project id is required")
	}

	raw, err := pubsub.NewClient(ctx, project, clientOptions(gcp, cfg)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: connect: %w", err)
	}
	c := &Client{client: raw, names: resourceNames{project: project}, cfg: cfg}

	if err := c.verify(ctx, requireSubscription); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id": project,
			"emulator":   cfg.EmulatorHost != "",
		}), "pubsub.connected")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig, cfg config.PubSubConfig) []option.ClientOption {
	if host := strings.TrimSpace(cfg.EmulatorHost); host != "" {
		return []option.ClientOption{
			option.WithEndpoint(host),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		}
	}
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (c *Client) verify(ctx context.Context, withSubscription bool) error {
	for _, topic := range configuredTopics(c.cfg) {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.names.topic(topic)})
		if err := classify("topic", topic, err); err != nil {
			return err
		}
	}
	if !withSubscription {
		return nil
	}
	sub := c.names.subscription(c.cfg.PartnerStatsSubscription)
	if sub == "" {
		return errors.New("pubsub: partner stats subscription is not configured")
	}
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: sub})
	return classify("subscription", c.cfg.PartnerStatsSubscription, err)
}

func classify(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("pubsub: %s %q does not exist", kind, name)
	default:
		return fmt.Errorf("pubsub: check %s %q: %w", kind, name, err)
	}
}

func configuredTopics(cfg config.PubSubConfig) []string {
	var out []string
	for _, name := range []string{cfg.OrdersTopic, cfg.WalletTopic} {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Publisher returns an ordered publisher so events sharing an ordering key
// reach subscribers in commit order.
func (c *Client) Publisher(topic string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	name := c.names.topic(topic)
	if name == "" {
		return nil
	}
	pub := c.client.Publisher(name)
	pub.EnableMessageOrdering = true
	return pub
}

func (c *Client) PartnerStatsSubscription() *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	name := c.names.subscription(c.cfg.PartnerStatsSubscription)
	if name == "" {
		return nil
	}
	return c.client.Subscriber(name)
}

// Ping re-checks the configured topics.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotConnected
	}
	return c.verify(ctx, false)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// resourceNames expands short ids to projects/<p>/<kind>/<id>. Fully
// qualified names pass through untouched.
type resourceNames struct {
	project string
}

func (n resourceNames) topic(id string) string {
	return n.expand("topics", id)
}

func (n resourceNames) subscription(id string) string {
	return n.expand("subscriptions", id)
}

func (n resourceNames) expand(kind, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "projects/") && strings.Contains(id, "/"+kind+"/") {
		return id
	}
	if n.project == "" {
		return ""
	}
	return "projects/" + n.project + "/" + kind + "/" + id
}
