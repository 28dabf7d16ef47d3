package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/logging"
	"github.com/fenilsonani/devsweep/internal/types"
)

// dockerTimeout bounds every request to the daemon
const dockerTimeout = 10 * time.Second

// DockerImage represents a Docker image
type DockerImage struct {
	ID         string   `json:"Id"`
	RepoTags   []string `json:"RepoTags"`
	Size       int64    `json:"Size"`
	SharedSize int64    `json:"SharedSize"`
	Containers int64    `json:"Containers"`
}

// Dangling reports whether the image has no tags
func (i DockerImage) Dangling() bool {
	return len(i.RepoTags) == 0 ||
		(len(i.RepoTags) == 1 && i.RepoTags[0] == "<none>:<none>")
}

// DockerContainer represents a Docker container
type DockerContainer struct {
	ID     string   `json:"Id"`
	Names  []string `json:"Names"`
	State  string   `json:"State"`
	SizeRw int64    `json:"SizeRw"`
}

// DockerVolume represents a Docker volume
type DockerVolume struct {
	Name      string           `json:"Name"`
	Driver    string           `json:"Driver"`
	UsageData *VolumeUsageData `json:"UsageData"`
}

// VolumeUsageData represents volume usage information
type VolumeUsageData struct {
	Size     int64 `json:"Size"`
	RefCount int   `json:"RefCount"`
}

// DockerBuildCacheInfo represents build cache information
type DockerBuildCacheInfo struct {
	ID     string `json:"ID"`
	Type   string `json:"Type"`
	Size   int64  `json:"Size"`
	InUse  bool   `json:"InUse"`
	Shared bool   `json:"Shared"`
}

// DockerDiskUsage is the daemon's /system/df answer
type DockerDiskUsage struct {
	Images     []DockerImage          `json:"Images"`
	Containers []DockerContainer      `json:"Containers"`
	Volumes    []DockerVolume         `json:"Volumes"`
	BuildCache []DockerBuildCacheInfo `json:"BuildCache"`
}

// DockerClient talks to the Docker daemon over its unix socket. It only reads;
// cleanup goes through the docker CLI commands attached to items.
type DockerClient struct {
	socketPath string
	httpClient *http.Client
}

// NewDockerClient returns a client for the first Docker socket found, or nil
func NewDockerClient(homeDir string) *DockerClient {
	for _, path := range getDockerSocketPaths(homeDir) {
		if _, err := os.Stat(path); err == nil {
			return newDockerClientForSocket(path)
		}
	}
	return nil
}

func newDockerClientForSocket(path string) *DockerClient {
	return &DockerClient{
		socketPath: path,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
			Timeout: dockerTimeout,
		},
	}
}

// getDockerSocketPaths returns possible Docker socket paths
func getDockerSocketPaths(homeDir string) []string {
	paths := []string{
		"/var/run/docker.sock",
		"/run/docker.sock",
	}
	if homeDir != "" {
		paths = append(paths,
			filepath.Join(homeDir, ".docker", "run", "docker.sock"),
			filepath.Join(homeDir, ".colima", "default", "docker.sock"),
		)
	}
	return paths
}

// SocketPath returns the socket the client dials
func (dc *DockerClient) SocketPath() string {
	if dc == nil {
		return ""
	}
	return dc.socketPath
}

// IsAvailable checks if Docker is available
func (dc *DockerClient) IsAvailable() bool {
	if dc == nil {
		return false
	}

	resp, err := dc.httpClient.Get("http://localhost/_ping")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// DiskUsage returns images, containers, volumes and build cache with sizes
func (dc *DockerClient) DiskUsage() (*DockerDiskUsage, error) {
	if dc == nil {
		return nil, fmt.Errorf("docker client not initialized")
	}

	resp, err := dc.httpClient.Get("http://localhost/system/df")
	if err != nil {
		return nil, fmt.Errorf("failed to get system df: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get system df: status %d", resp.StatusCode)
	}

	var usage DockerDiskUsage
	if err := json.NewDecoder(resp.Body).Decode(&usage); err != nil {
		return nil, fmt.Errorf("failed to decode system df: %w", err)
	}
	return &usage, nil
}

// Reclaimable returns what "docker system prune" would free: dangling unused
// images, stopped containers and unshared build cache not in use.
func (u *DockerDiskUsage) Reclaimable() uint64 {
	var total int64
	for _, image := range u.Images {
		if image.Dangling() && image.Containers <= 0 {
			total += image.Size - image.SharedSize
		}
	}
	for _, container := range u.Containers {
		// Safety: running containers are never pruned
		if container.State != "running" {
			total += container.SizeRw
		}
	}
	for _, bc := range u.BuildCache {
		if !bc.InUse && !bc.Shared {
			total += bc.Size
		}
	}
	if total < 0 {
		return 0
	}
	return uint64(total)
}

// UnusedVolumes returns the size of volumes no container references
func (u *DockerDiskUsage) UnusedVolumes() uint64 {
	var total int64
	for _, v := range u.Volumes {
		if v.UsageData != nil && v.UsageData.RefCount == 0 && v.UsageData.Size > 0 {
			total += v.UsageData.Size
		}
	}
	return uint64(total)
}

// detectDocker reports prunable Docker resources as command items. Nothing is
// tracked: the daemon's state is only invalidated by TTL.
func (r *recipes) detectDocker(_ *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryDocker)

	client := r.docker()
	if client == nil || !client.IsAvailable() {
		// Docker not available, return empty result
		return result
	}

	usage, err := client.DiskUsage()
	if err != nil {
		logging.Warn("docker disk usage unavailable",
			logging.Category(CategoryDocker),
			logging.Err(err))
		return result
	}

	if size := usage.Reclaimable(); size > 0 {
		result.Add(types.CleanupItem{
			Kind:           "Docker Reclaimable Space",
			SizeBytes:      size,
			SafeToDelete:   true,
			CleanupCommand: "docker system prune -f",
		})
	}
	if size := usage.UnusedVolumes(); size > 0 {
		result.Add(types.CleanupItem{
			Kind:           "Docker Unused Volumes",
			SizeBytes:      size,
			SafeToDelete:   false,
			Warning:        "Volume data cannot be recovered",
			CleanupCommand: "docker volume prune -f",
		})
	}

	return result
}
