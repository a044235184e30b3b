package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/catalog"
)

type catalogAPI struct {
	deps *ServerDeps
}

func registerCatalogAPI(g *echo.Group, authn echo.MiddlewareFunc, deps *ServerDeps) {
	api := catalogAPI{deps: deps}

	// public
	g.GET("/getCourse", api.listCourses)
	g.GET("/getBranches", api.listBranches)
	g.GET("/get-team-member", api.listTeamMembers)
	g.GET("/get-activities", api.listActivities)
	g.GET("/recent", api.recentImages)
	g.POST("/applyCourse", api.applyCourse)
	g.POST("/apply-in-a-course", api.applyInCourse)
	g.POST("/send-msg", api.sendMessage)

	// authenticated
	g.POST("/addCourse", api.addCourse, authn)
	g.POST("/addBranch", api.addBranch, authn)
	g.POST("/create-team", api.createTeamMember, authn)
	g.POST("/add-activity", api.addActivity, authn)
	g.POST("/upload-image", api.uploadImages, authn)
	g.GET("/get-notification", api.notifications, authn)
	g.DELETE("/delete-notification/:id/:type", api.deleteNotification, authn)
}

func (api *catalogAPI) addCourse(ctx echo.Context) error {
	var data catalog.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	images, err := readUploads(ctx, "image")
	if err != nil {
		return err
	}
	course, err := api.deps.CatalogSvc.AddCourse(ctx.Request().Context(), getContextPrincipal(ctx), data, images)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *catalogAPI) listCourses(ctx echo.Context) error {
	courses, err := api.deps.CatalogSvc.ListCourses(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *catalogAPI) addBranch(ctx echo.Context) error {
	var data catalog.NewBranch
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	images, err := readUploads(ctx, "image")
	if err != nil {
		return err
	}
	branch, err := api.deps.CatalogSvc.CreateBranch(ctx.Request().Context(), getContextPrincipal(ctx), data, images)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, branch)
}

func (api *catalogAPI) listBranches(ctx echo.Context) error {
	branches, err := api.deps.CatalogSvc.ListBranches(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, branches)
}

func (api *catalogAPI) createTeamMember(ctx echo.Context) error {
	var data catalog.NewTeamMember
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	photos, err := readUploads(ctx, "image")
	if err != nil {
		return err
	}
	var photo core.FileUpload
	if len(photos) > 0 {
		photo = photos[0]
	}
	member, err := api.deps.CatalogSvc.CreateTeamMember(ctx.Request().Context(), getContextPrincipal(ctx), data, photo)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, member)
}

func (api *catalogAPI) listTeamMembers(ctx echo.Context) error {
	members, err := api.deps.CatalogSvc.ListTeamMembers(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *catalogAPI) addActivity(ctx echo.Context) error {
	var data catalog.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	activity, err := api.deps.CatalogSvc.CreateActivity(ctx.Request().Context(), getContextPrincipal(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, activity)
}

func (api *catalogAPI) listActivities(ctx echo.Context) error {
	activities, err := api.deps.CatalogSvc.ListActivities(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, activities)
}

func (api *catalogAPI) uploadImages(ctx echo.Context) error {
	images, err := readUploads(ctx, "image")
	if err != nil {
		return err
	}
	set, err := api.deps.CatalogSvc.UploadGalleryImages(ctx.Request().Context(), getContextPrincipal(ctx), images)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, set)
}

func (api *catalogAPI) recentImages(ctx echo.Context) error {
	images, err := api.deps.CatalogSvc.RecentImages(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, images)
}

func (api *catalogAPI) applyCourse(ctx echo.Context) error {
	var data catalog.NewCourseApplication
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.CatalogSvc.ApplyCourse(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, success("Application submitted successfully"))
}

func (api *catalogAPI) applyInCourse(ctx echo.Context) error {
	var data catalog.NewCourseInterest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.CatalogSvc.ApplyInCourse(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, success("Interest submitted successfully"))
}

func (api *catalogAPI) sendMessage(ctx echo.Context) error {
	var data catalog.NewContactMessage
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.CatalogSvc.SendMessage(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, success("Message sent successfully"))
}

func (api *catalogAPI) notifications(ctx echo.Context) error {
	digest, err := api.deps.CatalogSvc.Notifications(ctx.Request().Context(), getContextPrincipal(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, digest)
}

func (api *catalogAPI) deleteNotification(ctx echo.Context) error {
	err := api.deps.CatalogSvc.DeleteNotification(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), ctx.Param("type"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success("Notification deleted successfully"))
}
