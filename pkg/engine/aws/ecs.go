package aws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

// ECS reports CPU in units of 1/1024 vCPU.
const cpuUnitsPerCore = 1024

type ECSClient interface {
	ListContainerInstances(ctx context.Context, params *ecs.ListContainerInstancesInput, optFns ...func(*ecs.Options)) (*ecs.ListContainerInstancesOutput, error)
	DescribeContainerInstances(ctx context.Context, params *ecs.DescribeContainerInstancesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeContainerInstancesOutput, error)
}

// ClusterInventory turns the active container instances of one ECS cluster
// into a server configuration sized by their remaining resources.
type ClusterInventory struct {
	Client  ECSClient
	Cluster string
	Logger  *slog.Logger
}

func NewClusterInventory(cfg aws.Config, cluster string, logger *slog.Logger) *ClusterInventory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ClusterInventory{
		Client:  ecs.NewFromConfig(cfg),
		Cluster: cluster,
		Logger:  logger,
	}
}

// Servers returns the cluster's active container instances as configuration
// number, ordered by container instance ARN. Cores is remaining CPU units
// divided by 1024 and RAM is remaining MiB in whole GiB. The second result maps
// server ID to container instance ARN.
func (inv *ClusterInventory) Servers(ctx context.Context, number int) (tetris.Configuration, []string, error) {
	paginator := ecs.NewListContainerInstancesPaginator(inv.Client, &ecs.ListContainerInstancesInput{
		Cluster: aws.String(inv.Cluster),
		Status:  types.ContainerInstanceStatusActive,
	})

	var arns []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return tetris.Configuration{}, nil, fmt.Errorf("failed to list container instances: %w", err)
		}
		arns = append(arns, page.ContainerInstanceArns...)
	}

	type host struct {
		arn        string
		cores, ram int
	}
	var hosts []host

	// DescribeContainerInstances accepts at most 100 instances per call.
	const chunkSize = 100
	for i := 0; i < len(arns); i += chunkSize {
		end := min(i+chunkSize, len(arns))
		out, err := inv.Client.DescribeContainerInstances(ctx, &ecs.DescribeContainerInstancesInput{
			Cluster:            aws.String(inv.Cluster),
			ContainerInstances: arns[i:end],
		})
		if err != nil {
			return tetris.Configuration{}, nil, fmt.Errorf("failed to describe container instances: %w", err)
		}
		for _, f := range out.Failures {
			inv.Logger.Warn("Container instance not described",
				"arn", aws.ToString(f.Arn),
				"reason", aws.ToString(f.Reason),
			)
		}
		for _, ci := range out.ContainerInstances {
			if ci.ContainerInstanceArn == nil {
				continue
			}
			cpu, mem := remaining(ci.RemainingResources)
			hosts = append(hosts, host{
				arn:   *ci.ContainerInstanceArn,
				cores: cpu / cpuUnitsPerCore,
				ram:   mem >> 10,
			})
		}
	}

	sort.Slice(hosts, func(a, b int) bool { return hosts[a].arn < hosts[b].arn })

	cfg := tetris.Configuration{Number: number, Items: make([]tetris.Item, 0, len(hosts))}
	ids := make([]string, 0, len(hosts))
	for _, h := range hosts {
		cfg.Items = append(cfg.Items, tetris.Item{ID: len(cfg.Items), Cores: h.cores, RAM: h.ram})
		ids = append(ids, h.arn)
	}

	inv.Logger.Info("ECS inventory loaded", "cluster", inv.Cluster, "instances", len(cfg.Items))
	return cfg, ids, nil
}

// remaining extracts CPU units and memory MiB, clamped at zero.
func remaining(resources []types.Resource) (cpu, mem int) {
	for _, r := range resources {
		switch aws.ToString(r.Name) {
		case "CPU":
			cpu = max(int(r.IntegerValue), 0)
		case "MEMORY":
			mem = max(int(r.IntegerValue), 0)
		}
	}
	return cpu, mem
}
