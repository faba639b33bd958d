package apierrors

const (
	MsgFailListTask       = "errorListTask"
	MsgFailGetTask        = "failGetTask"
	MsgInvalidTaskPayload = "invalidTaskPayload"
	MsgTaskNotFound       = "taskNotFound"
	MsgFailCreateTask     = "failCreateTask"
	MsgFailUpdateTask     = "failUpdateTask"
	MsgFailUpdateTime     = "failUpdateTime"
	MsgFailDeleteTask     = "failDeleteTask"
	MsgTaskDeleted        = "taskDeleted"
	MsgUnauthorized       = "unauthorized"
)
