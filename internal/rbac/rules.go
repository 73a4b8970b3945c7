package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"course:enroll",
		"lesson:complete",
		"assignment:submit",
		"exam:view",
		"attempt:create",
		"attempt:answer",
		"attempt:submit",
		"result:view-own",
		"user:change_password",
	},
	"teacher": {
		"course:view",
		"lesson:manage",
		"assignment:manage",
		"exam:view",
		"exam:manage",
		"result:view-course",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
