package paas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

// DockerClient implements Client against a local Docker daemon. A "service"
// is a named container plus a data volume; a "deployment" is the container
// itself, so deployment IDs and service IDs coincide.
type DockerClient struct {
	cli     *client.Client
	network string
}

func NewDockerClient(host, network string) (*DockerClient, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerClient{cli: cli, network: network}, nil
}

func (d *DockerClient) CreateService(ctx context.Context, name, img string, env map[string]string) (string, error) {
	reader, err := d.cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return "", fmt.Errorf("pull image %s: %w", img, err)
	}
	// Drain the pull output.
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()

	volumeName := name + "-data"
	if _, err := d.cli.VolumeCreate(ctx, volume.CreateOptions{Name: volumeName}); err != nil {
		return "", fmt.Errorf("create volume %s: %w", volumeName, err)
	}

	envList := make([]string, 0, len(env))
	for k, v := range env {
		envList = append(envList, k+"="+v)
	}

	gatewayPort := nat.Port("18789/tcp")
	config := &container.Config{
		Image:        img,
		Env:          envList,
		ExposedPorts: nat.PortSet{gatewayPort: struct{}{}},
	}
	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			// Ephemeral host port; the gateway is reached through it.
			gatewayPort: []nat.PortBinding{{HostPort: ""}},
		},
		Binds:         []string{volumeName + ":/root/.openclaw"},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
		NetworkMode:   container.NetworkMode(d.network),
	}

	resp, err := d.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("create container %s: %w", name, err)
	}
	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("start container %s: %w", name, err)
	}
	return resp.ID, nil
}

// UpdateStartCommand recreates the container with a shell start command.
// Docker has no in-place command update, so the container is replaced; the
// data volume keeps its state.
func (d *DockerClient) UpdateStartCommand(ctx context.Context, serviceID, cmd string) error {
	info, err := d.cli.ContainerInspect(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("inspect container %s: %w", serviceID, err)
	}

	name := strings.TrimPrefix(info.Name, "/")
	_ = d.cli.ContainerStop(ctx, serviceID, container.StopOptions{})
	if err := d.cli.ContainerRemove(ctx, serviceID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("remove container %s: %w", serviceID, err)
	}

	config := info.Config
	config.Entrypoint = []string{"/bin/sh", "-lc"}
	config.Cmd = []string{cmd}

	resp, err := d.cli.ContainerCreate(ctx, config, info.HostConfig, nil, nil, name)
	if err != nil {
		return fmt.Errorf("recreate container %s: %w", name, err)
	}
	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", name, err)
	}
	return nil
}

func (d *DockerClient) DeleteService(ctx context.Context, serviceID string) error {
	_ = d.cli.ContainerStop(ctx, serviceID, container.StopOptions{})
	if err := d.cli.ContainerRemove(ctx, serviceID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("remove container %s: %w", serviceID, err)
	}
	return nil
}

func (d *DockerClient) FindServiceByName(ctx context.Context, name string) (string, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return "", fmt.Errorf("list containers: %w", err)
	}
	for _, c := range containers {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == name {
				return c.ID, nil
			}
		}
	}
	return "", nil
}

func (d *DockerClient) LatestDeployment(ctx context.Context, serviceID string) (*Deployment, error) {
	info, err := d.cli.ContainerInspect(ctx, serviceID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("inspect container %s: %w", serviceID, err)
	}

	dep := &Deployment{ID: info.ID}
	switch {
	case info.State.Running && info.State.Health != nil && info.State.Health.Status == "starting":
		dep.Status = DeployStatusDeploying
	case info.State.Running && info.State.Health != nil && info.State.Health.Status == "unhealthy":
		dep.Status = DeployStatusCrashed
	case info.State.Running:
		dep.Status = DeployStatusSuccess
	case info.State.Restarting:
		dep.Status = DeployStatusDeploying
	case info.State.Dead:
		dep.Status = DeployStatusCrashed
	default:
		dep.Status = DeployStatusFailed
	}

	if bindings, ok := info.NetworkSettings.Ports["18789/tcp"]; ok && len(bindings) > 0 && bindings[0].HostPort != "" {
		dep.URL = "http://localhost:" + bindings[0].HostPort
	}
	return dep, nil
}

func (d *DockerClient) RestartDeployment(ctx context.Context, deploymentID string) error {
	if err := d.cli.ContainerRestart(ctx, deploymentID, container.StopOptions{}); err != nil {
		return fmt.Errorf("restart container %s: %w", deploymentID, err)
	}
	return nil
}

func (d *DockerClient) RedeployService(ctx context.Context, serviceID string) error {
	if err := d.cli.ContainerStart(ctx, serviceID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", serviceID, err)
	}
	return nil
}

func (d *DockerClient) RemoveDeployment(ctx context.Context, deploymentID string) error {
	if err := d.cli.ContainerStop(ctx, deploymentID, container.StopOptions{}); err != nil {
		return fmt.Errorf("stop container %s: %w", deploymentID, err)
	}
	return nil
}

func (d *DockerClient) Logs(ctx context.Context, deploymentID string, tail int) ([]LogLine, error) {
	reader, err := d.cli.ContainerLogs(ctx, deploymentID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return nil, fmt.Errorf("container logs %s: %w", deploymentID, err)
	}
	defer reader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return nil, fmt.Errorf("read logs %s: %w", deploymentID, err)
	}

	var lines []LogLine
	lines = append(lines, parseLogStream(stdout.String(), "info")...)
	lines = append(lines, parseLogStream(stderr.String(), "error")...)
	return lines, nil
}

// parseLogStream splits a docker log stream into lines, peeling off the
// RFC3339Nano timestamp prefix added by Timestamps: true.
func parseLogStream(stream, severity string) []LogLine {
	var lines []LogLine
	for _, raw := range strings.Split(stream, "\n") {
		if raw == "" {
			continue
		}
		line := LogLine{Severity: severity, Message: raw}
		if ts, rest, found := strings.Cut(raw, " "); found {
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				line.Timestamp = parsed
				line.Message = rest
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func (d *DockerClient) Exec(ctx context.Context, serviceID string, cmd []string) (*ExecResult, error) {
	execCfg := container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := d.cli.ContainerExecCreate(ctx, serviceID, execCfg)
	if err != nil {
		return nil, fmt.Errorf("exec create in %s: %w", serviceID, err)
	}

	resp, err := d.cli.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("exec attach in %s: %w", serviceID, err)
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, resp.Reader); err != nil {
		return nil, fmt.Errorf("exec read output in %s: %w", serviceID, err)
	}

	inspectResp, err := d.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return nil, fmt.Errorf("exec inspect in %s: %w", serviceID, err)
	}

	return &ExecResult{
		ExitCode: inspectResp.ExitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// InternalHost returns the container name: services on the same Docker
// network resolve each other by name.
func (d *DockerClient) InternalHost(serviceName string) string {
	return serviceName
}
