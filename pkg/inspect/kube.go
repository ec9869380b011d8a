// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/distribution/reference"
	"github.com/prometheus/procfs"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/k8s/client"
)

const defaultProcRoot = "/proc"

// KubeInspector inspects containers of the pods scheduled on the local node.
type KubeInspector struct {
	// Client is the Kubernetes client; the shared client when nil.
	Client client.Interface
	// NodeName restricts the pod lookup; client.NodeName() when empty.
	NodeName string
	// ProcRoot is the procfs mount used to resolve PIDs; /proc when empty.
	ProcRoot string
}

// Inspect finds the container whose runtime ID is id (with or without the
// runtime scheme, e.g. containerd://).
func (k *KubeInspector) Inspect(ctx context.Context, id string) (*Container, error) {
	id = trimScheme(id)
	if id == "" {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "container id is required")
	}

	cs, err := k.client()
	if err != nil {
		return nil, err
	}
	node := k.NodeName
	if node == "" {
		if node, err = client.NodeName(); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to determine node name", err)
		}
	}

	pods, err := cs.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		FieldSelector: "spec.nodeName=" + node,
	})
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "failed to list pods", err,
			map[string]any{"node": node})
	}

	for i := range pods.Items {
		pod := &pods.Items[i]
		if pod.Spec.NodeName != node {
			continue
		}
		status, ok := findStatus(pod, id)
		if !ok {
			continue
		}

		c := newContainer(pod, status)
		if !c.Running() {
			return c, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable,
				fmt.Sprintf("container %s is %s", c.ID, c.State), ErrNotRunning,
				map[string]any{"pod": pod.Namespace + "/" + pod.Name, "container": c.Name})
		}

		c.PID, err = k.resolvePID(c.ID)
		if err != nil {
			return c, err
		}
		slog.Debug("container inspected",
			"id", c.ID,
			"pod", pod.Namespace+"/"+pod.Name,
			"pid", c.PID)
		return c, nil
	}

	return nil, cerrors.WrapWithContext(cerrors.ErrCodeNotFound,
		fmt.Sprintf("container %s not found on node %s", id, node), ErrNotFound,
		map[string]any{"id": id, "node": node})
}

func (k *KubeInspector) client() (client.Interface, error) {
	if k.Client != nil {
		return k.Client, nil
	}
	cs, _, err := client.GetKubeClient()
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
	}
	return cs, nil
}

// resolvePID returns the init process of the container: among the processes
// whose cgroup path names the container, the one whose parent is outside it.
func (k *KubeInspector) resolvePID(id string) (int, error) {
	root := k.ProcRoot
	if root == "" {
		root = defaultProcRoot
	}
	fs, err := procfs.NewFS(root)
	if err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to open procfs", err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to list processes", err)
	}

	members := make(map[int]procfs.Proc)
	for _, p := range procs {
		cgroups, err := p.Cgroups()
		if err != nil {
			// raced with process exit
			continue
		}
		for _, cg := range cgroups {
			if strings.Contains(cg.Path, id) {
				members[p.PID] = p
				break
			}
		}
	}

	best := 0
	for pid, p := range members {
		stat, err := p.Stat()
		if err != nil {
			continue
		}
		if _, inside := members[stat.PPID]; inside {
			continue
		}
		if best == 0 || pid < best {
			best = pid
		}
	}

	if best == 0 {
		return 0, cerrors.WrapWithContext(cerrors.ErrCodeNotFound,
			fmt.Sprintf("no process found for container %s", id), ErrNotFound,
			map[string]any{"id": id, "procRoot": root})
	}
	return best, nil
}

func findStatus(pod *corev1.Pod, id string) (corev1.ContainerStatus, bool) {
	for _, list := range [][]corev1.ContainerStatus{
		pod.Status.ContainerStatuses,
		pod.Status.InitContainerStatuses,
		pod.Status.EphemeralContainerStatuses,
	} {
		for _, st := range list {
			if cid := trimScheme(st.ContainerID); cid != "" && cid == id {
				return st, true
			}
		}
	}
	return corev1.ContainerStatus{}, false
}

func newContainer(pod *corev1.Pod, st corev1.ContainerStatus) *Container {
	c := &Container{
		ID:     trimScheme(st.ContainerID),
		Name:   st.Name,
		Image:  normalizeImage(st.Image),
		State:  stateOf(st.State),
		Labels: make(map[string]string, len(pod.Labels)+len(pod.Annotations)+4),
	}

	for _, spec := range pod.Spec.Containers {
		if spec.Name != st.Name {
			continue
		}
		if c.Image == "" {
			c.Image = normalizeImage(spec.Image)
		}
		for _, p := range spec.Ports {
			c.Ports = append(c.Ports, Port{ContainerPort: int(p.ContainerPort), Protocol: string(p.Protocol)})
		}
	}

	for key, v := range pod.Labels {
		c.Labels[key] = v
	}
	for key, v := range pod.Annotations {
		c.Labels[AnnotationPrefix+key] = v
	}
	c.Labels[LabelPodName] = pod.Name
	c.Labels[LabelPodNamespace] = pod.Namespace
	c.Labels[LabelContainerName] = st.Name
	if c.Image != "" {
		c.Labels[LabelImage] = c.Image
	}
	if len(c.Ports) > 0 {
		if raw, err := json.Marshal(c.Ports); err == nil {
			c.Labels[LabelPorts] = string(raw)
		}
	}
	return c
}

func stateOf(s corev1.ContainerState) State {
	switch {
	case s.Running != nil:
		return StateRunning
	case s.Waiting != nil:
		return StateWaiting
	case s.Terminated != nil:
		return StateExited
	default:
		return StateUnknown
	}
}

// normalizeImage expands a short image name to its fully qualified form,
// e.g. nginx becomes docker.io/library/nginx:latest. Digest references get
// no tag. Unparseable values are returned unchanged.
func normalizeImage(image string) string {
	if image == "" {
		return ""
	}
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return image
	}
	return reference.TagNameOnly(named).String()
}

func trimScheme(id string) string {
	if i := strings.Index(id, "://"); i >= 0 {
		return id[i+3:]
	}
	return strings.TrimSpace(id)
}
