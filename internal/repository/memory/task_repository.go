package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
)

// TaskRepository keeps ingestion task progress in process memory. Entries
// expire on their own; a restart forgets in-flight tasks, which is
// acceptable because the upload endpoint is the only writer.
type TaskRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewTaskRepository() *TaskRepository {
	// Tasks stay queryable for a day, purged every hour
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &TaskRepository{
		cache: c,
	}
}

func (r *TaskRepository) Save(task *entity.IngestionTask) {
	r.cache.Set(task.Id, task, cache.DefaultExpiration)
}

func (r *TaskRepository) Get(taskId string) (*entity.IngestionTask, bool) {
	if x, found := r.cache.Get(taskId); found {
		return x.(*entity.IngestionTask), true
	}
	return nil, false
}

func (r *TaskRepository) Delete(taskId string) {
	r.cache.Delete(taskId)
}

// UpdateDocument marks one document's outcome and re-resolves the task
// state. Concurrent consumers may report documents of the same task, so
// the read-modify-write is serialized.
func (r *TaskRepository) UpdateDocument(taskId, documentName, status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, found := r.Get(taskId)
	if !found {
		return
	}

	for i := range task.Documents {
		if task.Documents[i].DocumentName == documentName {
			task.Documents[i].Status = status
			task.Documents[i].Error = errMsg
			break
		}
	}
	task.Resolve()
	r.Save(task)
}
