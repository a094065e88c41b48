package flow

import (
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/util"
)

type fileNode struct {
	id     int64
	taskId int64
	parent int64
}

// FileDependencyResolver holds the acyclic parent graph of a template's
// file declarations and answers readiness questions for consolidation
// tasks against instance state.
type FileDependencyResolver struct {
	nodes map[int64]*fileNode
}

func NewFileDependencyResolver(t *model.WorkflowTemplate) *FileDependencyResolver {
	r := &FileDependencyResolver{
		nodes: make(map[int64]*fileNode),
	}
	for i := range t.Tasks {
		for _, f := range t.Tasks[i].Files {
			r.nodes[f.Id] = &fileNode{id: f.Id, taskId: f.TaskId, parent: f.ParentFileId}
		}
	}
	return r
}

// AddDependency declares parentFileId as the input of fileId. The edge
// is rejected when fileId already appears in the transitive-parent
// chain of parentFileId; the graph is untouched on rejection.
func (r *FileDependencyResolver) AddDependency(fileId int64, parentFileId int64) error {
	node, ok := r.nodes[fileId]
	if !ok {
		return FileNotFoundError{FileId: fileId}
	}
	if _, ok := r.nodes[parentFileId]; !ok {
		return FileNotFoundError{FileId: parentFileId}
	}
	if fileId == parentFileId {
		return CircularDependencyError{FileId: fileId, ParentFileId: parentFileId}
	}
	if util.Contains(r.DependencyChain(parentFileId), []int64{fileId}) {
		return CircularDependencyError{FileId: fileId, ParentFileId: parentFileId}
	}
	node.parent = parentFileId
	return nil
}

// DependencyChain walks parent pointers and returns all transitive
// ancestors of fileId, nearest first. The walk carries a seen-set so a
// cyclic graph written past author-time validation still terminates.
func (r *FileDependencyResolver) DependencyChain(fileId int64) []int64 {
	var chain []int64
	node, ok := r.nodes[fileId]
	if !ok {
		return chain
	}
	seen := map[int64]struct{}{fileId: {}}
	cur := node.parent
	for cur != 0 {
		if _, ok := seen[cur]; ok {
			break
		}
		seen[cur] = struct{}{}
		chain = append(chain, cur)
		next, ok := r.nodes[cur]
		if !ok {
			break
		}
		cur = next.parent
	}
	return chain
}

// requiredInputs resolves the file ids an instance task must see
// accepted before it may complete. Source task declarations win; with
// none, the ancestors of the task's own files are required.
func (r *FileDependencyResolver) requiredInputs(tt *model.TemplateTask) []int64 {
	var required []int64
	if len(tt.SourceTaskIds) > 0 {
		srcSet := make(map[int64]struct{}, len(tt.SourceTaskIds))
		for _, id := range tt.SourceTaskIds {
			srcSet[id] = struct{}{}
		}
		for _, n := range r.nodes {
			if _, ok := srcSet[n.taskId]; ok {
				required = append(required, n.id)
			}
		}
		return required
	}
	for _, f := range tt.Files {
		required = append(required, r.DependencyChain(f.Id)...)
	}
	return util.Dedup(required)
}

// IsReady reports whether every required input file for the task has an
// ACCEPTED version in the given instance files.
func (r *FileDependencyResolver) IsReady(tt *model.TemplateTask, files []model.InstanceFile) bool {
	required := r.requiredInputs(tt)
	if len(required) == 0 {
		return true
	}
	accepted := make(map[int64]struct{})
	for _, f := range files {
		if f.Status == model.FILE_ACCEPTED {
			accepted[f.FileId] = struct{}{}
		}
	}
	for _, id := range required {
		if _, ok := accepted[id]; !ok {
			return false
		}
	}
	return true
}
