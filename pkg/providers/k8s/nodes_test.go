package k8s

import (
	"context"
	"testing"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
)

func node(name, cpu, mem string, lbls map[string]string) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: lbls},
		Status: corev1.NodeStatus{
			Allocatable: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(cpu),
				corev1.ResourceMemory: resource.MustParse(mem),
			},
		},
	}
}

func pod(name, nodeName, cpu, mem string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
		Spec: corev1.PodSpec{
			NodeName: nodeName,
			Containers: []corev1.Container{{
				Name: "app",
				Resources: corev1.ResourceRequirements{
					Requests: corev1.ResourceList{
						corev1.ResourceCPU:    resource.MustParse(cpu),
						corev1.ResourceMemory: resource.MustParse(mem),
					},
				},
			}},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
}

func inventory(objects ...runtime.Object) *NodeInventory {
	return NewNodeInventory(&Client{Clientset: fake.NewSimpleClientset(objects...)}, nil)
}

func TestNodeInventoryServers(t *testing.T) {
	cordoned := node("node-c", "8", "32Gi", nil)
	cordoned.Spec.Unschedulable = true

	inv := inventory(
		node("node-b", "4", "16Gi", nil),
		node("node-a", "16", "64Gi", nil),
		cordoned,
		pod("web", "node-a", "2500m", "10Gi", corev1.PodRunning),
		pod("done", "node-a", "8", "32Gi", corev1.PodSucceeded),
		pod("pending", "", "1", "1Gi", corev1.PodPending),
	)

	cfg, names, err := inv.Servers(context.Background(), 2, "")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Number)
	assert.Equal(t, []string{"node-a", "node-b"}, names)
	assert.Equal(t, []tetris.Item{
		{ID: 0, Cores: 13, RAM: 54},
		{ID: 1, Cores: 4, RAM: 16},
	}, cfg.Items)
}

func TestNodeInventorySelector(t *testing.T) {
	inv := inventory(
		node("gpu-1", "32", "128Gi", map[string]string{"pool": "gpu"}),
		node("cpu-1", "8", "32Gi", map[string]string{"pool": "cpu"}),
	)

	cfg, names, err := inv.Servers(context.Background(), 0, "pool=cpu")
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu-1"}, names)
	assert.Equal(t, []tetris.Item{{ID: 0, Cores: 8, RAM: 32}}, cfg.Items)
}

func TestNodeInventoryOvercommitClampsToZero(t *testing.T) {
	inv := inventory(
		node("tiny", "1", "1Gi", nil),
		pod("hog", "tiny", "2", "2Gi", corev1.PodRunning),
	)

	cfg, _, err := inv.Servers(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, []tetris.Item{{ID: 0, Cores: 0, RAM: 0}}, cfg.Items)
}

func TestNodeInventoryBadSelector(t *testing.T) {
	_, _, err := inventory().Servers(context.Background(), 0, "pool in (")
	assert.Error(t, err)
}
