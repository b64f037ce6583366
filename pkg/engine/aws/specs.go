package aws

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// InstanceSpecs is the compute capacity of an instance type.
type InstanceSpecs struct {
	VCPU      int
	MemoryMiB int
}

// staticSpecs seeds every Catalog so common types resolve without an API call.
var staticSpecs = map[string]InstanceSpecs{
	// T3 Family (Burstable)
	"t3.medium":  {VCPU: 2, MemoryMiB: 4096},
	"t3.large":   {VCPU: 2, MemoryMiB: 8192},
	"t3.xlarge":  {VCPU: 4, MemoryMiB: 16384},
	"t3.2xlarge": {VCPU: 8, MemoryMiB: 32768},

	// M5 Family (General Purpose)
	"m5.large":   {VCPU: 2, MemoryMiB: 8192},
	"m5.xlarge":  {VCPU: 4, MemoryMiB: 16384},
	"m5.2xlarge": {VCPU: 8, MemoryMiB: 32768},
	"m5.4xlarge": {VCPU: 16, MemoryMiB: 65536},

	// C5 Family (Compute Optimized)
	"c5.large":   {VCPU: 2, MemoryMiB: 4096},
	"c5.xlarge":  {VCPU: 4, MemoryMiB: 8192},
	"c5.2xlarge": {VCPU: 8, MemoryMiB: 16384},

	// R5 Family (Memory Optimized)
	"r5.large":   {VCPU: 2, MemoryMiB: 16384},
	"r5.xlarge":  {VCPU: 4, MemoryMiB: 32768},
	"r5.2xlarge": {VCPU: 8, MemoryMiB: 65536},
}

// Catalog caches instance type capacities.
type Catalog struct {
	mu    sync.RWMutex
	specs map[string]InstanceSpecs
}

func NewCatalog() *Catalog {
	c := &Catalog{specs: make(map[string]InstanceSpecs, len(staticSpecs))}
	for k, v := range staticSpecs {
		c.specs[k] = v
	}
	return c
}

// Lookup returns the capacity of instanceType, if known.
func (c *Catalog) Lookup(instanceType string) (InstanceSpecs, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.specs[instanceType]
	return s, ok
}

// Sync fetches the types the catalog does not know yet.
func (c *Catalog) Sync(ctx context.Context, client EC2Client, instanceTypes []string) error {
	seen := make(map[string]bool)
	var unknown []types.InstanceType

	c.mu.RLock()
	for _, t := range instanceTypes {
		if _, ok := c.specs[t]; !ok && !seen[t] {
			unknown = append(unknown, types.InstanceType(t))
			seen[t] = true
		}
	}
	c.mu.RUnlock()

	if len(unknown) == 0 {
		return nil
	}

	paginator := ec2.NewDescribeInstanceTypesPaginator(client, &ec2.DescribeInstanceTypesInput{
		InstanceTypes: unknown,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to describe instance types %v: %w", unknown, err)
		}

		c.mu.Lock()
		for _, info := range page.InstanceTypes {
			var s InstanceSpecs
			if info.VCpuInfo != nil && info.VCpuInfo.DefaultVCpus != nil {
				s.VCPU = int(*info.VCpuInfo.DefaultVCpus)
			}
			if info.MemoryInfo != nil && info.MemoryInfo.SizeInMiB != nil {
				s.MemoryMiB = int(*info.MemoryInfo.SizeInMiB)
			}
			c.specs[string(info.InstanceType)] = s
		}
		c.mu.Unlock()
	}
	return nil
}
