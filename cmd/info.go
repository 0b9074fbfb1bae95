package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// SceneInfo logs the meshes, materials, lights and cameras of a scene.
func SceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene argument")
	}

	s, err := LoadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	info, err := sceneInfo(s)
	if err != nil {
		return err
	}
	logger.Noticef("scene %s\n%s", s.Name, info)
	return nil
}

func sceneInfo(s *scene.Scene) (string, error) {
	buf := bytes.NewBufferString("")

	meshes := tablewriter.NewWriter(buf)
	meshes.SetAutoFormatHeaders(false)
	meshes.SetAutoWrapText(false)
	meshes.SetHeader([]string{"Mesh", "Material", "Kind", "Triangles"})
	for _, mesh := range s.Meshes {
		bsdf, err := s.Materials.Lookup(mesh.MaterialID)
		if err != nil {
			return "", err
		}
		meshes.Append([]string{mesh.Name, s.Materials.Name(mesh.MaterialID), bsdf.Kind().String(), fmt.Sprintf("%d", mesh.NumFaces())})
	}
	meshes.SetFooter([]string{"", "", "Total", fmt.Sprintf("%d", s.NumTriangles())})
	meshes.Render()

	totalPower, err := s.Lights.TotalPower()
	if err != nil {
		return "", err
	}

	lightTable := tablewriter.NewWriter(buf)
	lightTable.SetAutoFormatHeaders(false)
	lightTable.SetAutoWrapText(false)
	lightTable.SetHeader([]string{"Light", "Power"})
	for i := 0; i < s.Lights.NumLights(); i++ {
		lightTable.Append([]string{s.Lights.Name(i), fmt.Sprintf("%.4g", s.Lights.LightPower(i))})
	}
	lightTable.SetFooter([]string{"Total", fmt.Sprintf("%.4g", totalPower)})
	lightTable.Render()

	cameras := tablewriter.NewWriter(buf)
	cameras.SetAutoFormatHeaders(false)
	cameras.SetAutoWrapText(false)
	cameras.SetHeader([]string{"Camera", "Position", "Direction"})
	for i := 0; i < s.Cameras.Len(); i++ {
		c := s.Cameras.Get(i)
		cameras.Append([]string{c.Name, formatVec(c.Position), formatVec(c.Direction)})
	}
	cameras.Render()

	return buf.String(), nil
}

func formatVec(v core.Vec3) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v.X, v.Y, v.Z)
}
