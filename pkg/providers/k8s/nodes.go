package k8s

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/informers"
)

// NodeInventory turns schedulable nodes into a server configuration.
type NodeInventory struct {
	Client *Client
	Logger *slog.Logger
}

func NewNodeInventory(client *Client, logger *slog.Logger) *NodeInventory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &NodeInventory{Client: client, Logger: logger}
}

// Servers returns the nodes matching selector as configuration number,
// ordered by node name. Capacity is allocatable minus the requests of pods
// still running there: whole cores and whole GiB, never negative.
// The second result maps server ID to node name.
func (inv *NodeInventory) Servers(ctx context.Context, number int, selector string) (tetris.Configuration, []string, error) {
	sel, err := labels.Parse(selector)
	if err != nil {
		return tetris.Configuration{}, nil, fmt.Errorf("invalid node selector %q: %w", selector, err)
	}

	factory := informers.NewSharedInformerFactory(inv.Client.Clientset, 10*time.Minute)
	nodeLister := factory.Core().V1().Nodes().Lister()
	podLister := factory.Core().V1().Pods().Lister()

	ctx, cancel := context.WithCancel(ctx)
	factory.Start(ctx.Done())
	defer func() {
		cancel()
		factory.Shutdown()
	}()

	for kind, ok := range factory.WaitForCacheSync(ctx.Done()) {
		if !ok {
			return tetris.Configuration{}, nil, fmt.Errorf("failed to sync informer for %v", kind)
		}
	}

	nodes, err := nodeLister.List(sel)
	if err != nil {
		return tetris.Configuration{}, nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	pods, err := podLister.List(labels.Everything())
	if err != nil {
		return tetris.Configuration{}, nil, fmt.Errorf("failed to list pods: %w", err)
	}

	usedCPU := make(map[string]int64) // millicores
	usedMem := make(map[string]int64) // bytes
	for _, pod := range pods {
		if pod.Spec.NodeName == "" {
			continue
		}
		if pod.Status.Phase == corev1.PodSucceeded || pod.Status.Phase == corev1.PodFailed {
			continue
		}
		for _, c := range pod.Spec.Containers {
			usedCPU[pod.Spec.NodeName] += c.Resources.Requests.Cpu().MilliValue()
			usedMem[pod.Spec.NodeName] += c.Resources.Requests.Memory().Value()
		}
	}

	sort.Slice(nodes, func(a, b int) bool { return nodes[a].Name < nodes[b].Name })

	cfg := tetris.Configuration{Number: number}
	var names []string
	for _, node := range nodes {
		if node.Spec.Unschedulable {
			inv.Logger.Debug("Skipping cordoned node", "node", node.Name)
			continue
		}
		alloc := node.Status.Allocatable
		cores := free(alloc.Cpu(), usedCPU[node.Name], true) / 1000
		ram := free(alloc.Memory(), usedMem[node.Name], false) >> 30

		cfg.Items = append(cfg.Items, tetris.Item{
			ID:    len(cfg.Items),
			Cores: int(cores),
			RAM:   int(ram),
		})
		names = append(names, node.Name)
	}

	inv.Logger.Info("Node inventory loaded", "nodes", len(cfg.Items), "selector", sel.String())
	return cfg, names, nil
}

func free(q *resource.Quantity, used int64, milli bool) int64 {
	total := q.Value()
	if milli {
		total = q.MilliValue()
	}
	if total < used {
		return 0
	}
	return total - used
}
