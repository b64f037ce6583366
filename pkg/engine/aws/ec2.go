package aws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

type EC2Client interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

// Inventory turns running EC2 instances into a server configuration.
type Inventory struct {
	Client  EC2Client
	Catalog *Catalog
	Logger  *slog.Logger
}

func NewInventory(cfg aws.Config, logger *slog.Logger) *Inventory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Inventory{
		Client:  ec2.NewFromConfig(cfg),
		Catalog: NewCatalog(),
		Logger:  logger,
	}
}

// Servers lists running instances carrying every tag in tags and returns them
// as configuration number, ordered by instance ID. Cores is the default vCPU
// count and RAM is whole GiB. The second result maps server ID to instance ID.
func (inv *Inventory) Servers(ctx context.Context, number int, tags map[string]string) (tetris.Configuration, []string, error) {
	filters := []types.Filter{{
		Name:   aws.String("instance-state-name"),
		Values: []string{string(types.InstanceStateNameRunning)},
	}}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		filters = append(filters, types.Filter{
			Name:   aws.String("tag:" + k),
			Values: []string{tags[k]},
		})
	}

	type instance struct {
		id, kind string
	}
	var instances []instance
	var kinds []string

	paginator := ec2.NewDescribeInstancesPaginator(inv.Client, &ec2.DescribeInstancesInput{Filters: filters})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return tetris.Configuration{}, nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, i := range reservation.Instances {
				if i.InstanceId == nil {
					continue
				}
				instances = append(instances, instance{id: *i.InstanceId, kind: string(i.InstanceType)})
				kinds = append(kinds, string(i.InstanceType))
			}
		}
	}

	sort.Slice(instances, func(a, b int) bool { return instances[a].id < instances[b].id })

	if err := inv.Catalog.Sync(ctx, inv.Client, kinds); err != nil {
		return tetris.Configuration{}, nil, err
	}

	cfg := tetris.Configuration{Number: number, Items: make([]tetris.Item, 0, len(instances))}
	ids := make([]string, 0, len(instances))
	for _, i := range instances {
		spec, ok := inv.Catalog.Lookup(i.kind)
		if !ok {
			inv.Logger.Warn("Skipping instance of unknown type", "instance", i.id, "type", i.kind)
			continue
		}
		cfg.Items = append(cfg.Items, tetris.Item{
			ID:    len(cfg.Items),
			Cores: spec.VCPU,
			RAM:   spec.MemoryMiB / 1024,
		})
		ids = append(ids, i.id)
	}

	inv.Logger.Info("EC2 inventory loaded", "instances", len(cfg.Items))
	return cfg, ids, nil
}
